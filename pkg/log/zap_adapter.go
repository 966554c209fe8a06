package log

import (
	"errors"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter writes timer events to a zap.Logger.
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter creates a new ZapAdapter that writes to the given zap.Logger.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{logger: logger}
}

// Log writes the event to the zap logger. Errors are written at Warn level,
// everything else at Debug level.
func (a *ZapAdapter) Log(event Event) {
	level := zapcore.DebugLevel
	if event.Error != nil {
		level = zapcore.WarnLevel
	}

	// Skip building fields when the level is disabled.
	ce := a.logger.Check(level, "timer")
	if ce == nil {
		return
	}

	fields := []zap.Field{
		zap.String("timer_id", event.TimerID),
		zap.Stringer("kind", event.Kind),
		zap.Stringer("category", event.Category),
	}

	switch {
	case event.StateChange != nil:
		fields = append(fields,
			zap.String("old_state", event.StateChange.OldState),
			zap.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			fields = append(fields, zap.String("reason", event.StateChange.Reason))
		}
	case event.Tick != nil:
		fields = append(fields,
			zap.Int64("count", event.Tick.Count),
			zap.Duration("elapsed", event.Tick.Elapsed),
			zap.Duration("delta", event.Tick.Delta),
		)
	case event.Drift != nil:
		fields = append(fields,
			zap.Duration("drift", event.Drift.Drift),
			zap.Duration("interval", event.Drift.Interval),
		)
	case event.Error != nil:
		fields = append(fields, zap.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			fields = append(fields, zap.String("error_context", event.Error.Context))
		}
	}

	ce.Write(fields...)
}

// Sync flushes buffered entries. Consoles that cannot be synced are not
// an error.
func (a *ZapAdapter) Sync() error {
	err := a.logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

var (
	_ Logger = (*ZapAdapter)(nil)
	_ Syncer = (*ZapAdapter)(nil)
)
