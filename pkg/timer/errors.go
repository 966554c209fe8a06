package timer

import "errors"

// Timer errors.
var (
	// ErrInvalidConfig is returned for a malformed configuration: a
	// non-positive or non-finite interval or maximum duration.
	ErrInvalidConfig = errors.New("invalid timer configuration")

	// ErrInvalidState is returned (or reported) when an operation is not
	// allowed in the timer's current state. See StateError.
	ErrInvalidState = errors.New("invalid timer state")

	// ErrInvalidCallback is returned when a nil tick callback is supplied.
	ErrInvalidCallback = errors.New("tick callback must not be nil")

	// ErrCallbackExecution is reported when the tick callback fails.
	// See CallbackError.
	ErrCallbackExecution = errors.New("tick callback failed")

	// ErrMaxDurationExceeded is reported when the accumulated elapsed time
	// exceeds the configured maximum duration.
	ErrMaxDurationExceeded = errors.New("max duration exceeded")

	// ErrConcurrentOperation is returned when a state-mutating operation is
	// attempted while another one is in flight.
	ErrConcurrentOperation = errors.New("operation in progress")

	// ErrInvalidDuration is returned for a non-positive or non-finite
	// countdown duration or interval.
	ErrInvalidDuration = errors.New("invalid countdown duration")

	// ErrInvalidSnapshot is returned when a snapshot cannot be loaded or
	// decoded.
	ErrInvalidSnapshot = errors.New("invalid timer snapshot")
)

// StateError reports an operation attempted from a state that forbids it.
// It matches ErrInvalidState with errors.Is.
type StateError struct {
	// Op is the rejected operation (start, stop, pause, ...).
	Op string

	// State is the timer state at the time of the attempt.
	State State
}

func (e *StateError) Error() string {
	if e.Op == "stop" && e.State == StateStopped {
		return "Cannot stop: timer already stopped"
	}
	return "Cannot " + e.Op + ": timer is " + e.State.String()
}

// Unwrap returns ErrInvalidState.
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// CallbackError wraps a failure of the tick callback, either a returned
// error or a recovered panic. It matches ErrCallbackExecution with
// errors.Is and unwraps to the original cause.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string {
	return ErrCallbackExecution.Error() + ": " + e.Err.Error()
}

// Unwrap returns the callback's error.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCallbackExecution.
func (e *CallbackError) Is(target error) bool {
	return target == ErrCallbackExecution
}
