// Command ticktock runs interval timers and countdowns from the command line.
//
// This command demonstrates the timer library with:
//   - CLI argument parsing
//   - Configuration file support
//   - Batch countdowns and plain interval timers
//   - An interactive shell driving named countdowns
//   - Structured timer event logging (slog, zap, CBOR event file)
//
// Usage:
//
//	ticktock [flags]
//
// Flags:
//
//	-config string           Configuration file path
//	-countdown string        Countdown from the configuration file to run
//	-timer string            Timer from the configuration file to run
//	-seconds float           Countdown length in seconds (default 10)
//	-interval duration       Tick interval (default 1s)
//	-precision               Enable drift compensation
//	-max-duration duration   Stop a plain timer after this much active time
//	-interactive             Start the interactive shell
//	-log-level string        Log level: debug, info, warn, error (default "info")
//	-log-format string       Timer event output: slog, zap, none (default "none")
//	-event-log string        Append timer events to this CBOR file
//	-snapshot-format string  Snapshot output: json, cbor (default "json")
//	-flush-interval duration How often buffered event output is flushed (default 1s)
//	-replay string           Summarize an event log instead of running a timer
//	-replay-timer string     Only replay events of this timer ID
//	-replay-category string  Only replay these categories, comma separated
//
// Examples:
//
//	# Count down three minutes
//	ticktock -seconds 180
//
//	# Tick every 250ms for ten seconds, logging events through zap
//	ticktock -seconds 0 -interval 250ms -max-duration 10s -log-format zap
//
//	# Drive the countdowns of a config file interactively
//	ticktock -config ticktock.yaml -interactive
//
//	# Summarize the errors recorded in an event log
//	ticktock -replay timers.tlog -replay-category error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/ticktock-go/ticktock/cmd/ticktock/interactive"
	"github.com/ticktock-go/ticktock/pkg/config"
	timerlog "github.com/ticktock-go/ticktock/pkg/log"
	"github.com/ticktock-go/ticktock/pkg/timer"
)

// Config holds the command configuration.
type Config struct {
	ConfigFile     string
	Countdown      string
	Timer          string
	Seconds        float64
	Interval       time.Duration
	Precision      bool
	MaxDuration    time.Duration
	Interactive    bool
	LogLevel       string
	LogFormat      string
	EventLog       string
	SnapshotFormat string
	FlushInterval  time.Duration

	Replay           string
	ReplayTimer      string
	ReplayCategories string
}

var cfg Config

func init() {
	flag.StringVar(&cfg.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&cfg.Countdown, "countdown", "", "Countdown from the configuration file to run")
	flag.StringVar(&cfg.Timer, "timer", "", "Timer from the configuration file to run")
	flag.Float64Var(&cfg.Seconds, "seconds", 10, "Countdown length in seconds (0 runs a plain timer)")
	flag.DurationVar(&cfg.Interval, "interval", time.Second, "Tick interval")
	flag.BoolVar(&cfg.Precision, "precision", false, "Enable drift compensation")
	flag.DurationVar(&cfg.MaxDuration, "max-duration", 0, "Stop a plain timer after this much active time")
	flag.BoolVar(&cfg.Interactive, "interactive", false, "Start the interactive shell")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFormat, "log-format", "none", "Timer event output: slog, zap, none (events log at debug level)")
	flag.StringVar(&cfg.EventLog, "event-log", "", "Append timer events to this CBOR file")
	flag.StringVar(&cfg.SnapshotFormat, "snapshot-format", interactive.FormatJSON, "Snapshot output: json, cbor")
	flag.DurationVar(&cfg.FlushInterval, "flush-interval", time.Second, "How often buffered event output is flushed")
	flag.StringVar(&cfg.Replay, "replay", "", "Summarize an event log instead of running a timer")
	flag.StringVar(&cfg.ReplayTimer, "replay-timer", "", "Only replay events of this timer ID")
	flag.StringVar(&cfg.ReplayCategories, "replay-category", "", "Only replay these categories, comma separated")
}

func main() {
	flag.Parse()

	setupLogging(cfg.LogLevel)

	if err := validateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Replay != "" {
		if err := runReplay(os.Stdout); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
		return
	}

	var file *config.File
	if cfg.ConfigFile != "" {
		f, err := config.Load(cfg.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		file = f
		log.Printf("Loaded %d timers and %d countdowns from %s",
			len(f.Timers), len(f.Countdowns), cfg.ConfigFile)
	}

	logger, err := buildLogger(cfg.LogFormat, cfg.LogLevel, cfg.EventLog)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := runCountdown
	switch {
	case cfg.Interactive:
		run = runInteractive
	case cfg.Timer != "" || cfg.Seconds == 0:
		run = runTimer
	}

	// The flusher runs until the timer is done, so the run cancels the
	// shared context when it returns.
	runCtx, finish := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer finish()
		return run(gctx, file, logger)
	})
	g.Go(func() error {
		return flushEvents(gctx, logger, cfg.FlushInterval)
	})

	err = g.Wait()
	finish()
	err = multierr.Append(err, logger.Close())
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	log.Println("Goodbye!")
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

func validateConfig() error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Seconds < 0 {
		return fmt.Errorf("seconds must not be negative, got %v", cfg.Seconds)
	}
	if cfg.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %s", cfg.FlushInterval)
	}
	if _, err := replayFilter(); err != nil {
		return err
	}
	if cfg.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative, got %s", cfg.MaxDuration)
	}
	if (cfg.Countdown != "" || cfg.Timer != "") && cfg.ConfigFile == "" {
		return errors.New("-countdown and -timer require -config")
	}
	switch cfg.LogFormat {
	case "slog", "zap", "none":
		// Valid
	default:
		return fmt.Errorf("unknown log format: %s", cfg.LogFormat)
	}
	switch cfg.SnapshotFormat {
	case interactive.FormatJSON, interactive.FormatCBOR:
		// Valid
	default:
		return fmt.Errorf("unknown snapshot format: %s", cfg.SnapshotFormat)
	}
	return nil
}

// buildLogger assembles the timer event logger. Closing it flushes and
// closes every output.
func buildLogger(format, level, eventLog string) (*timerlog.MultiLogger, error) {
	var loggers []timerlog.Logger

	switch format {
	case "slog":
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel(level)})
		loggers = append(loggers, timerlog.NewSlogAdapter(slog.New(handler)))

	case "zap":
		zcfg := zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
		zl, err := zcfg.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create zap logger: %w", err)
		}
		loggers = append(loggers, timerlog.NewZapAdapter(zl))
	}

	if eventLog != "" {
		fl, err := timerlog.NewFileLogger(eventLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		loggers = append(loggers, fl)
	}

	return timerlog.NewMultiLogger(loggers...), nil
}

// flushEvents syncs buffered event output every interval until ctx is
// done. A failing flush ends the run.
func flushEvents(ctx context.Context, s timerlog.Syncer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Sync(); err != nil {
				return fmt.Errorf("failed to flush timer events: %w", err)
			}
		}
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zapLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func runCountdown(ctx context.Context, file *config.File, logger timerlog.Logger) error {
	seconds := cfg.Seconds
	opts := []timer.CountdownOption{
		timer.WithCountdownInterval(cfg.Interval),
		timer.WithCountdownLogger(logger),
	}
	if cfg.Precision {
		opts = append(opts, timer.WithCountdownPrecision())
	}

	if cfg.Countdown != "" {
		def, ok := file.Countdown(cfg.Countdown)
		if !ok {
			return fmt.Errorf("unknown countdown %q", cfg.Countdown)
		}
		seconds = def.Seconds
		opts = append(opts, timer.WithCountdownInterval(def.Interval()))
		if def.Precision {
			opts = append(opts, timer.WithCountdownPrecision())
		}
		opts = append(opts, timer.WithCountdownID(cfg.Countdown))
	}

	done := make(chan struct{})
	failed := make(chan error, 1)
	opts = append(opts, timer.WithCountdownEvents(timer.Events{
		OnTick: func(remaining int64) {
			log.Printf("%ds left", remaining)
		},
		OnDrift: func(d time.Duration) {
			log.Printf("Drift: %s", d)
		},
		OnError: func(err error) {
			select {
			case failed <- err:
			default:
			}
		},
		OnComplete: func() {
			close(done)
		},
	}))

	c, err := timer.NewCountdown(seconds, opts...)
	if err != nil {
		return err
	}
	defer c.Dispose()

	if _, err := c.Start(); err != nil {
		return err
	}
	log.Printf("Counting down %ds (interval %s)", c.RemainingSeconds(), c.Interval())

	select {
	case <-done:
		log.Println("Done!")
		return nil
	case err := <-failed:
		return err
	case <-ctx.Done():
		log.Println("Interrupted")
		if err := c.PauseContext(context.Background()); err != nil {
			return err
		}
		return printSnapshot(os.Stdout, c.Snapshot())
	}
}

func runTimer(ctx context.Context, file *config.File, logger timerlog.Logger) error {
	tcfg := timer.Config{
		Interval:    cfg.Interval,
		MaxDuration: cfg.MaxDuration,
		Precision:   cfg.Precision,
	}
	opts := []timer.Option{timer.WithLogger(logger)}

	if cfg.Timer != "" {
		c, err := file.Timer(cfg.Timer)
		if err != nil {
			return err
		}
		tcfg = c
		tcfg.AutoStart = false
		opts = append(opts, timer.WithID(cfg.Timer))
	}

	stopped := make(chan struct{})
	failed := make(chan error, 1)
	opts = append(opts, timer.WithEvents(timer.Events{
		OnTick: func(elapsed int64) {
			log.Printf("%ds elapsed", elapsed)
		},
		OnDrift: func(d time.Duration) {
			log.Printf("Drift: %s", d)
		},
		OnError: func(err error) {
			select {
			case failed <- err:
			default:
			}
		},
		OnStop: func() {
			close(stopped)
		},
	}))

	t, err := timer.New(tcfg, opts...)
	if err != nil {
		return err
	}
	defer t.Dispose()

	if _, err := t.Start(func() error { return nil }); err != nil {
		return err
	}
	log.Printf("Timer %s running (interval %s)", t.ID(), t.Interval())

	select {
	case <-stopped:
		select {
		case err := <-failed:
			if errors.Is(err, timer.ErrMaxDurationExceeded) {
				log.Println("Max duration reached")
				return nil
			}
			return err
		default:
			return nil
		}
	case <-ctx.Done():
		log.Println("Interrupted")
		if err := t.PauseContext(context.Background()); err != nil {
			return err
		}
		return printSnapshot(os.Stdout, t.Snapshot())
	}
}

func runInteractive(ctx context.Context, file *config.File, logger timerlog.Logger) error {
	opts := interactive.Options{
		Logger:         logger,
		SnapshotFormat: cfg.SnapshotFormat,
	}
	if file != nil {
		opts.Countdowns = file.Countdowns
	}

	shell, err := interactive.New(opts)
	if err != nil {
		return err
	}
	defer shell.Close()

	log.SetOutput(shell.Stdout())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	shell.Run(ctx, cancel)
	return nil
}

func printSnapshot(w io.Writer, snap timer.Snapshot) error {
	text, err := interactive.FormatSnapshot(cfg.SnapshotFormat, snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

// replayFilter builds the event filter from the replay flags.
func replayFilter() (timerlog.Filter, error) {
	filter := timerlog.Filter{TimerID: cfg.ReplayTimer}
	if cfg.ReplayCategories == "" {
		return filter, nil
	}
	for _, name := range strings.Split(cfg.ReplayCategories, ",") {
		c, err := timerlog.ParseCategory(strings.TrimSpace(name))
		if err != nil {
			return timerlog.Filter{}, err
		}
		filter.Categories = append(filter.Categories, c)
	}
	return filter, nil
}

// runReplay prints a per-timer summary of the event log.
func runReplay(w io.Writer) error {
	filter, err := replayFilter()
	if err != nil {
		return err
	}
	r, err := timerlog.Open(cfg.Replay, filter)
	if err != nil {
		return err
	}
	defer r.Close()

	summaries, err := timerlog.Summarize(r.All())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No matching events.")
		return err
	}

	for _, s := range summaries {
		state := s.State
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(w, "%-36s %-9s %-7s ticks=%d elapsed=%s transitions=%d drifts=%d max-drift=%s span=%s\n",
			s.TimerID, s.Kind, state, s.Ticks, s.Elapsed, s.Transitions, s.Drifts, s.MaxDrift, s.Last.Sub(s.First))
		for _, msg := range s.Errors {
			fmt.Fprintf(w, "  error: %s\n", msg)
		}
	}
	return nil
}
