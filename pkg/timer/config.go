package timer

import (
	"fmt"
	"math"
	"time"
)

// Unbounded is the maximum duration used when none is configured.
const Unbounded time.Duration = math.MaxInt64

// Config holds timer configuration.
type Config struct {
	// Interval between ticks. Required, must be positive.
	Interval time.Duration

	// AutoStart starts the timer with a no-op callback on construction.
	AutoStart bool

	// MaxDuration bounds the accumulated elapsed time. A tick that pushes
	// elapsed time past it stops the timer with ErrMaxDurationExceeded.
	// Zero means Unbounded.
	MaxDuration time.Duration

	// Precision enables drift reporting and tick re-alignment.
	Precision bool
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, c.Interval)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("%w: max duration must be positive, got %s", ErrInvalidConfig, c.MaxDuration)
	}
	return nil
}

// withDefaults returns c with zero fields replaced by their defaults.
func (c Config) withDefaults() Config {
	if c.MaxDuration == 0 {
		c.MaxDuration = Unbounded
	}
	return c
}

// MillisConfig is the millisecond-based shape of Config used by
// configuration files.
type MillisConfig struct {
	IntervalMS    float64  `yaml:"interval_ms" json:"intervalMs"`
	MaxDurationMS *float64 `yaml:"max_duration_ms,omitempty" json:"maxDurationMs,omitempty"`
	AutoStart     bool     `yaml:"auto_start,omitempty" json:"autoStart,omitempty"`
	Precision     bool     `yaml:"precision,omitempty" json:"precision,omitempty"`
}

// Config converts and validates the millisecond values. NaN, infinities
// and non-positive values fail with ErrInvalidConfig. A nil MaxDurationMS
// means Unbounded; an explicit zero is rejected.
func (m MillisConfig) Config() (Config, error) {
	interval, err := DurationFromMillis(m.IntervalMS)
	if err != nil {
		return Config{}, fmt.Errorf("%w: interval: %v", ErrInvalidConfig, err)
	}

	cfg := Config{
		Interval:  interval,
		AutoStart: m.AutoStart,
		Precision: m.Precision,
	}

	if m.MaxDurationMS != nil {
		maxDuration, err := DurationFromMillis(*m.MaxDurationMS)
		if err != nil {
			return Config{}, fmt.Errorf("%w: max duration: %v", ErrInvalidConfig, err)
		}
		cfg.MaxDuration = maxDuration
	}

	return cfg, nil
}

// DurationFromMillis converts a positive, finite number of milliseconds to
// a duration. Sub-nanosecond fractions are truncated.
func DurationFromMillis(ms float64) (time.Duration, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, fmt.Errorf("%v is not a finite number", ms)
	}
	if ms <= 0 {
		return 0, fmt.Errorf("%v must be positive", ms)
	}
	if ms > float64(Unbounded/time.Millisecond) {
		return 0, fmt.Errorf("%v is out of range", ms)
	}
	d := time.Duration(ms * float64(time.Millisecond))
	if d <= 0 {
		return 0, fmt.Errorf("%v rounds to zero", ms)
	}
	return d, nil
}

// toMillis returns d in milliseconds as a float.
func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
