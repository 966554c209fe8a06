// Package log provides structured event logging for timers.
//
// This package defines the Logger interface and Event types for capturing
// timer lifecycle activity: state transitions, ticks, drift reports and
// errors. It is separate from operational logging - timer capture provides a
// complete machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
// Timers are configured with a Logger implementation:
//
//	// For development: log to console via slog or zap
//	timer.WithLogger(log.NewSlogAdapter(slog.Default()))
//	timer.WithLogger(log.NewZapAdapter(zap.NewExample()))
//
//	// For analysis: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/ticktock/timers.tlog")
//	timer.WithLogger(fl)
//
//	// Both: use MultiLogger
//	timer.WithLogger(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// Loggers are purely observational. A Logger that panics does not disturb
// the timer that called it.
//
// # File Format
//
// Log files are streams of CBOR items with integer map keys. FileLogger
// buffers writes; call Sync to flush them. Open streams a log back through
// a Filter, and Summarize condenses it per timer:
//
//	r, _ := log.Open("timers.tlog", log.Filter{Categories: []log.Category{log.CategoryError}})
//	defer r.Close()
//	summaries, err := log.Summarize(r.All())
package log
