package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ticktock-go/ticktock/pkg/timer"
)

// File is the content of a ticktock configuration file.
type File struct {
	// Timers maps a name to a plain timer configuration.
	Timers map[string]timer.MillisConfig `yaml:"timers"`

	// Countdowns maps a name to a countdown definition.
	Countdowns map[string]Countdown `yaml:"countdowns"`
}

// Countdown defines a countdown in a configuration file.
type Countdown struct {
	// Seconds is the countdown length. Required.
	Seconds float64 `yaml:"seconds"`

	// IntervalMS is the tick interval in milliseconds.
	// Zero selects timer.DefaultCountdownInterval.
	IntervalMS float64 `yaml:"interval_ms,omitempty"`

	AutoStart bool `yaml:"auto_start,omitempty"`
	Precision bool `yaml:"precision,omitempty"`
}

// Validate checks the countdown definition.
func (c Countdown) Validate() error {
	if math.IsNaN(c.Seconds) || math.IsInf(c.Seconds, 0) || c.Seconds <= 0 {
		return fmt.Errorf("%w: seconds must be a positive finite number, got %v", timer.ErrInvalidConfig, c.Seconds)
	}
	if c.IntervalMS != 0 {
		if _, err := timer.DurationFromMillis(c.IntervalMS); err != nil {
			return fmt.Errorf("%w: interval: %v", timer.ErrInvalidConfig, err)
		}
	}
	return nil
}

// Options returns the countdown options matching the definition.
// The definition must be valid.
func (c Countdown) Options() []timer.CountdownOption {
	var opts []timer.CountdownOption
	if c.IntervalMS != 0 {
		interval, _ := timer.DurationFromMillis(c.IntervalMS)
		opts = append(opts, timer.WithCountdownInterval(interval))
	}
	if c.AutoStart {
		opts = append(opts, timer.WithCountdownAutoStart())
	}
	if c.Precision {
		opts = append(opts, timer.WithCountdownPrecision())
	}
	return opts
}

// Interval returns the tick interval of the countdown.
func (c Countdown) Interval() time.Duration {
	if c.IntervalMS == 0 {
		return timer.DefaultCountdownInterval
	}
	d, _ := timer.DurationFromMillis(c.IntervalMS)
	return d
}

// LoadError describes a configuration that could not be loaded.
type LoadError struct {
	// File is the path of the configuration file, empty when parsing bytes.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	switch {
	case e.File != "" && e.Line > 0:
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	case e.File != "":
		return e.File + ": " + msg
	default:
		return msg
	}
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse decodes and validates a configuration from YAML bytes.
// Unknown keys are rejected. Any failure is a *LoadError matching
// timer.ErrInvalidConfig.
func Parse(data []byte) (*File, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{
			Line:    yamlLine(err),
			Message: "failed to parse YAML",
			Cause:   fmt.Errorf("%w: %w", timer.ErrInvalidConfig, err),
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	f, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}
	return f, nil
}

// Validate checks every timer and countdown in name order.
func (f *File) Validate() error {
	for _, name := range f.TimerNames() {
		if _, err := f.Timers[name].Config(); err != nil {
			return &LoadError{
				Message: "timer " + strconv.Quote(name),
				Cause:   err,
			}
		}
	}
	for _, name := range f.CountdownNames() {
		if err := f.Countdowns[name].Validate(); err != nil {
			return &LoadError{
				Message: "countdown " + strconv.Quote(name),
				Cause:   err,
			}
		}
	}
	return nil
}

// TimerNames returns the configured timer names, sorted.
func (f *File) TimerNames() []string {
	return slices.Sorted(maps.Keys(f.Timers))
}

// CountdownNames returns the configured countdown names, sorted.
func (f *File) CountdownNames() []string {
	return slices.Sorted(maps.Keys(f.Countdowns))
}

// Timer returns the validated configuration of the named timer.
func (f *File) Timer(name string) (timer.Config, error) {
	mc, ok := f.Timers[name]
	if !ok {
		return timer.Config{}, fmt.Errorf("unknown timer %q", name)
	}
	return mc.Config()
}

// Countdown returns the named countdown definition.
func (f *File) Countdown(name string) (Countdown, bool) {
	c, ok := f.Countdowns[name]
	return c, ok
}

// yamlLine extracts the first line number from a yaml.v3 type error.
func yamlLine(err error) int {
	var te *yaml.TypeError
	if !errors.As(err, &te) || len(te.Errors) == 0 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(te.Errors[0], "line %d:", &line); scanErr != nil {
		return 0
	}
	return line
}
