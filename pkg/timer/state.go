package timer

import "fmt"

// State represents the lifecycle state of a timer.
type State uint8

const (
	// StateStopped is the initial state and the target of Stop and Reset.
	StateStopped State = iota

	// StateRunning indicates ticks are being delivered.
	StateRunning

	// StatePaused indicates ticking is suspended and elapsed time retained.
	StatePaused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// valid reports whether s is one of the defined states.
func (s State) valid() bool {
	return s <= StatePaused
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("%w: unknown state %d", ErrInvalidSnapshot, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "STOPPED":
		*s = StateStopped
	case "RUNNING":
		*s = StateRunning
	case "PAUSED":
		*s = StatePaused
	default:
		return fmt.Errorf("%w: unknown state %q", ErrInvalidSnapshot, text)
	}
	return nil
}
