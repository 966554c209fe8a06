// Package interactive provides the interactive command-line interface
// for ticktock.
package interactive

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/ticktock-go/ticktock/pkg/clock"
	"github.com/ticktock-go/ticktock/pkg/config"
	timerlog "github.com/ticktock-go/ticktock/pkg/log"
	"github.com/ticktock-go/ticktock/pkg/timer"
)

// Snapshot formats.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Options configures a Shell.
type Options struct {
	// Logger receives the events of every countdown. Nil disables logging.
	Logger timerlog.Logger

	// Scheduler drives the countdowns. Defaults to clock.Real().
	Scheduler clock.Scheduler

	// SnapshotFormat is FormatJSON (default) or FormatCBOR.
	SnapshotFormat string

	// Countdowns are created on startup.
	Countdowns map[string]config.Countdown
}

// Shell manages named countdowns from an interactive prompt.
type Shell struct {
	rl   *readline.Instance
	out  io.Writer
	opts Options

	mu         sync.Mutex
	countdowns map[string]*timer.CountdownTimer
}

// New creates a shell reading commands through readline.
func New(opts Options) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ticktock> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s, err := newShell(rl.Stdout(), opts)
	if err != nil {
		rl.Close()
		return nil, err
	}
	s.rl = rl
	return s, nil
}

func newShell(out io.Writer, opts Options) (*Shell, error) {
	if opts.Scheduler == nil {
		opts.Scheduler = clock.Real()
	}
	if opts.SnapshotFormat == "" {
		opts.SnapshotFormat = FormatJSON
	}
	if opts.SnapshotFormat != FormatJSON && opts.SnapshotFormat != FormatCBOR {
		return nil, fmt.Errorf("unknown snapshot format: %s", opts.SnapshotFormat)
	}

	s := &Shell{
		out:        out,
		opts:       opts,
		countdowns: make(map[string]*timer.CountdownTimer),
	}

	configured := &config.File{Countdowns: opts.Countdowns}
	for _, name := range configured.CountdownNames() {
		def := opts.Countdowns[name]
		if err := s.create(name, def.Seconds, def.Options()...); err != nil {
			s.Close()
			return nil, fmt.Errorf("countdown %q: %w", name, err)
		}
	}
	return s, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop. It returns when the user quits,
// the input ends or ctx is done.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if s.Exec(line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs a single command line and reports whether the shell should
// quit.
func (s *Shell) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "new", "n":
		s.cmdNew(args)

	case "start":
		s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
			if _, err := c.Start(); err != nil {
				s.printf("Error: %v\n", err)
				return
			}
			s.printf("%s started (%ds left)\n", name, c.RemainingSeconds())
		})

	case "pause", "p":
		s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
			c.Pause()
		})

	case "resume":
		s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
			c.Resume()
		})

	case "stop":
		s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
			if err := c.Stop(); err != nil {
				s.printf("Error: %v\n", err)
			}
		})

	case "reset":
		s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
			if err := c.Reset(); err != nil {
				s.printf("Error: %v\n", err)
			}
		})

	case "set":
		s.cmdSet(args)

	case "status", "s":
		s.cmdStatus(args)

	case "metrics", "m":
		s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
			m := c.Metrics()
			s.printf("%s: ticks=%d avg=%.1fms drift=%.1fms\n", name, m.TotalTicks, m.AverageTickMs, m.DriftMs)
		})

	case "snapshot", "snap":
		s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
			text, err := FormatSnapshot(s.opts.SnapshotFormat, c.Snapshot())
			if err != nil {
				s.printf("Error: %v\n", err)
				return
			}
			s.printf("%s\n", text)
		})

	case "load":
		s.cmdLoad(args)

	case "list", "ls":
		s.cmdList()

	case "quit", "exit", "q":
		return true

	default:
		s.printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

// Close disposes every countdown.
func (s *Shell) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, c := range s.countdowns {
		c.Dispose()
		delete(s.countdowns, name)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
ticktock Commands:
  Countdowns:
    new <name> <seconds> [interval-ms] - Create a countdown
    start <name>                       - Start (or restart) a countdown
    pause <name>                       - Pause a running countdown
    resume <name>                      - Resume a paused countdown
    stop <name>                        - Stop a countdown, keeping the remaining time
    reset <name>                       - Stop and restore the initial time
    set <name> <seconds>               - Replace the countdown length

  Inspection:
    list                               - List countdowns
    status [name]                      - Show state and remaining time
    metrics <name>                     - Show tick metrics
    snapshot <name>                    - Print a snapshot
    load <name> <snapshot>             - Restore a stopped countdown

  Other:
    help                               - Show this help
    quit                               - Exit`)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) lookup(name string) (*timer.CountdownTimer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.countdowns[name]
	return c, ok
}

func (s *Shell) withCountdown(args []string, fn func(name string, c *timer.CountdownTimer)) {
	if len(args) < 1 {
		s.printf("Usage: <command> <name>\n")
		return
	}
	c, ok := s.lookup(args[0])
	if !ok {
		s.printf("Unknown countdown: %s\n", args[0])
		return
	}
	fn(args[0], c)
}

// create replaces the countdown called name.
func (s *Shell) create(name string, seconds float64, opts ...timer.CountdownOption) error {
	opts = append([]timer.CountdownOption{
		timer.WithCountdownScheduler(s.opts.Scheduler),
		timer.WithCountdownLogger(s.opts.Logger),
		timer.WithCountdownID(name),
		timer.WithCountdownEvents(s.events(name)),
	}, opts...)

	c, err := timer.NewCountdown(seconds, opts...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.countdowns[name]
	s.countdowns[name] = c
	s.mu.Unlock()

	if old != nil {
		old.Dispose()
	}
	return nil
}

func (s *Shell) events(name string) timer.Events {
	return timer.Events{
		OnPause:  func() { s.printf("[%s] paused\n", name) },
		OnResume: func() { s.printf("[%s] resumed\n", name) },
		OnStop:   func() { s.printf("[%s] stopped\n", name) },
		OnReset:  func() { s.printf("[%s] reset\n", name) },
		OnTick: func(remaining int64) {
			s.printf("[%s] %ds left\n", name, remaining)
		},
		OnDrift: func(d time.Duration) {
			s.printf("[%s] drift %s\n", name, d)
		},
		OnError: func(err error) {
			s.printf("[%s] error: %v\n", name, err)
		},
		OnComplete: func() {
			s.printf("[%s] done!\n", name)
		},
	}
}

func (s *Shell) cmdNew(args []string) {
	if len(args) < 2 {
		s.printf("Usage: new <name> <seconds> [interval-ms]\n")
		return
	}

	seconds, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		s.printf("Invalid seconds: %s\n", args[1])
		return
	}

	var opts []timer.CountdownOption
	if len(args) > 2 {
		ms, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			s.printf("Invalid interval: %s\n", args[2])
			return
		}
		interval, err := timer.DurationFromMillis(ms)
		if err != nil {
			s.printf("Invalid interval: %v\n", err)
			return
		}
		opts = append(opts, timer.WithCountdownInterval(interval))
	}

	if err := s.create(args[0], seconds, opts...); err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("Created %s (%ss)\n", args[0], args[1])
}

func (s *Shell) cmdSet(args []string) {
	if len(args) < 2 {
		s.printf("Usage: set <name> <seconds>\n")
		return
	}
	c, ok := s.lookup(args[0])
	if !ok {
		s.printf("Unknown countdown: %s\n", args[0])
		return
	}
	seconds, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		s.printf("Invalid seconds: %s\n", args[1])
		return
	}
	if err := c.SetTime(seconds); err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("%s set to %ds\n", args[0], c.RemainingSeconds())
}

func (s *Shell) cmdStatus(args []string) {
	if len(args) == 0 {
		s.cmdList()
		return
	}
	s.withCountdown(args, func(name string, c *timer.CountdownTimer) {
		s.printf("%s: %s, %ds left, %d elapsed, %.0f%% done\n",
			name, c.State(), c.RemainingSeconds(), c.ElapsedSeconds(), c.Progress()*100)
	})
}

func (s *Shell) cmdList() {
	s.mu.Lock()
	names := slices.Sorted(maps.Keys(s.countdowns))
	s.mu.Unlock()

	if len(names) == 0 {
		s.printf("No countdowns. Use 'new <name> <seconds>' to create one.\n")
		return
	}

	for _, name := range names {
		c, ok := s.lookup(name)
		if !ok {
			continue
		}
		s.printf("  %-12s %-8s %5ds\n", name, c.State(), c.RemainingSeconds())
	}
}

func (s *Shell) cmdLoad(args []string) {
	if len(args) < 2 {
		s.printf("Usage: load <name> <snapshot>\n")
		return
	}
	c, ok := s.lookup(args[0])
	if !ok {
		s.printf("Unknown countdown: %s\n", args[0])
		return
	}
	snap, err := ParseSnapshot(s.opts.SnapshotFormat, strings.Join(args[1:], " "))
	if err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	if err := c.LoadSnapshot(snap); err != nil {
		s.printf("Error: %v\n", err)
		return
	}
	s.printf("%s restored: %s, %ds left\n", args[0], c.State(), c.RemainingSeconds())
}

// FormatSnapshot renders a snapshot as JSON or as hex-encoded CBOR.
func FormatSnapshot(format string, snap timer.Snapshot) (string, error) {
	switch format {
	case FormatJSON:
		data, err := timer.MarshalSnapshotJSON(snap)
		return string(data), err
	case FormatCBOR:
		data, err := timer.EncodeSnapshot(snap)
		return hex.EncodeToString(data), err
	default:
		return "", fmt.Errorf("unknown snapshot format: %s", format)
	}
}

// ParseSnapshot is the inverse of FormatSnapshot.
func ParseSnapshot(format, text string) (timer.Snapshot, error) {
	switch format {
	case FormatJSON:
		return timer.UnmarshalSnapshotJSON([]byte(text))
	case FormatCBOR:
		data, err := hex.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return timer.Snapshot{}, fmt.Errorf("%w: %v", timer.ErrInvalidSnapshot, err)
		}
		return timer.DecodeSnapshot(data)
	default:
		return timer.Snapshot{}, fmt.Errorf("unknown snapshot format: %s", format)
	}
}
