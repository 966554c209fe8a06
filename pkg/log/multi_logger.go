package log

import (
	"io"

	"go.uber.org/multierr"
)

// MultiLogger fans events out to several loggers, typically a console
// adapter and a FileLogger.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log sends the event to every logger in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Sync flushes every logger that implements Syncer.
func (m *MultiLogger) Sync() error {
	var err error
	for _, l := range m.loggers {
		if s, ok := l.(Syncer); ok {
			err = multierr.Append(err, s.Sync())
		}
	}
	return err
}

// Close flushes all loggers, then closes every one that implements
// io.Closer. All failures are combined.
func (m *MultiLogger) Close() error {
	err := m.Sync()
	for _, l := range m.loggers {
		if c, ok := l.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}

var (
	_ Logger = (*MultiLogger)(nil)
	_ Syncer = (*MultiLogger)(nil)
)
