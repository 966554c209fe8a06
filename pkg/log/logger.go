package log

// Logger receives timer events. Implementations must be safe for
// concurrent use; ticks wait for Log to return.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) {
	f(event)
}

// Syncer is implemented by loggers that buffer output.
type Syncer interface {
	Sync() error
}

// NoopLogger discards all events.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
)
