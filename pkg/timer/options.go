package timer

import (
	"github.com/ticktock-go/ticktock/pkg/clock"
	"github.com/ticktock-go/ticktock/pkg/log"
)

// Option configures a Timer.
type Option func(*Timer)

// WithEvents sets the lifecycle callbacks.
func WithEvents(events Events) Option {
	return func(t *Timer) {
		t.events = events
	}
}

// WithLogger sets the logger receiving timer events. Nil disables logging.
func WithLogger(logger log.Logger) Option {
	return func(t *Timer) {
		if logger == nil {
			logger = log.NoopLogger{}
		}
		t.logger = logger
	}
}

// WithScheduler sets the scheduling primitive. Defaults to clock.Real().
func WithScheduler(s clock.Scheduler) Option {
	return func(t *Timer) {
		if s != nil {
			t.sched = s
		}
	}
}

// WithID overrides the generated timer ID used in log events.
func WithID(id string) Option {
	return func(t *Timer) {
		if id != "" {
			t.id = id
		}
	}
}

// withKind tags log events with the owning kind.
func withKind(kind log.Kind) Option {
	return func(t *Timer) {
		t.kind = kind
	}
}
