package log

import (
	"bufio"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/multierr"
)

// FileLogger appends timer events to a file as a stream of CBOR items.
// Writes are buffered; Sync and Close flush them to disk.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	enc     *cbor.Encoder
	written int64
	err     error // first encoding failure since the last Sync
	closed  bool
}

// NewFileLogger opens path for appending, creating it if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	return &FileLogger{
		file: f,
		buf:  buf,
		enc:  newEventEncoder(buf),
	}, nil
}

// Log appends an event. A failure is kept and returned by the next Sync
// or Close so ticks are never held up by the file.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.enc.Encode(event); err != nil {
		if l.err == nil {
			l.err = err
		}
		return
	}
	l.written++
}

// Written returns the number of events accepted so far.
func (l *FileLogger) Written() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Sync flushes buffered events and commits the file to stable storage.
func (l *FileLogger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	return multierr.Combine(l.takeErr(), l.buf.Flush(), l.file.Sync())
}

// Close flushes and closes the file. Later calls to Log, Sync and Close do
// nothing.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return multierr.Combine(l.takeErr(), l.buf.Flush(), l.file.Close())
}

func (l *FileLogger) takeErr() error {
	err := l.err
	l.err = nil
	return err
}

var (
	_ Logger = (*FileLogger)(nil)
	_ Syncer = (*FileLogger)(nil)
)
