package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes timer events to an slog.Logger.
// Useful for development when you want to see timer activity in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger. Errors are written at Warn level,
// everything else at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("timer_id", event.TimerID),
		slog.String("kind", event.Kind.String()),
		slog.String("category", event.Category.String()),
	}

	level := slog.LevelDebug

	// Add type-specific attributes
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Tick != nil:
		attrs = append(attrs,
			slog.Int64("count", event.Tick.Count),
			slog.Duration("elapsed", event.Tick.Elapsed),
			slog.Duration("delta", event.Tick.Delta),
		)
	case event.Drift != nil:
		attrs = append(attrs,
			slog.Duration("drift", event.Drift.Drift),
			slog.Duration("interval", event.Drift.Interval),
		)
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "timer", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
