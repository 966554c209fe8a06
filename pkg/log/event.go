package log

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a timer log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred, as reported by the timer's scheduler.
	Timestamp time.Time `cbor:"1,keyasint"`

	// TimerID uniquely identifies the timer (UUID unless set explicitly).
	TimerID string `cbor:"2,keyasint"`

	// Kind tells plain timers and countdowns apart.
	Kind Kind `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"5,keyasint,omitempty"`
	Tick        *TickEvent        `cbor:"6,keyasint,omitempty"`
	Drift       *DriftEvent       `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"`
}

// Kind identifies the emitting timer type.
type Kind uint8

const (
	// KindTimer is a plain repeating timer.
	KindTimer Kind = 0
	// KindCountdown is the timer owned by a countdown.
	KindCountdown Kind = 1
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTimer:
		return "TIMER"
	case KindCountdown:
		return "COUNTDOWN"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a lifecycle state change.
	CategoryState Category = 0
	// CategoryTick indicates a delivered tick.
	CategoryTick Category = 1
	// CategoryDrift indicates a drift report in precision mode.
	CategoryDrift Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryTick:
		return "TICK"
	case CategoryDrift:
		return "DRIFT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name such as "tick", ignoring case.
func ParseCategory(name string) (Category, error) {
	for c := CategoryState; c <= CategoryError; c++ {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown event category %q", name)
}

// StateChangeEvent captures timer lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be equal to NewState for resets).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason names the operation that caused the change (start, pause, ...).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// TickEvent captures the bookkeeping after a tick.
type TickEvent struct {
	// Count is the number of ticks since the last start.
	Count int64 `cbor:"1,keyasint"`

	// Elapsed is the accumulated active time.
	// Stored as nanoseconds.
	Elapsed time.Duration `cbor:"2,keyasint"`

	// Delta is the time since the previous accounting update.
	Delta time.Duration `cbor:"3,keyasint,omitempty"`
}

// DriftEvent captures a drift report.
type DriftEvent struct {
	// Drift is the nominal elapsed time minus the measured elapsed time.
	Drift time.Duration `cbor:"1,keyasint"`

	// Interval is the configured tick interval.
	Interval time.Duration `cbor:"2,keyasint"`
}

// ErrorEventData captures errors reported by a timer.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
