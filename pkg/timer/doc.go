// Package timer implements a repeating interval timer with explicit
// lifecycle states and a countdown built on top of it.
//
// # Timer Lifecycle
//
//	STOPPED --Start--> RUNNING --Pause--> PAUSED --Resume--> RUNNING
//	RUNNING/PAUSED --Stop/Reset--> STOPPED
//
// Start and Stop report illegal transitions as returned errors. Pause and
// Resume report them through Events.OnError only.
//
// # Tick Accounting
//
// Elapsed time is accumulated from the scheduler's timestamps on every tick,
// not derived from the number of ticks, so pause/resume cycles reflect the
// actual active time. Faults inside a tick (callback errors and panics,
// exceeding the maximum duration) stop the timer and are reported through
// Events.OnError; they never escape into the scheduler.
//
// # Precision Mode
//
// With Config.Precision set, the timer reports drift larger than half an
// interval through Events.OnDrift and re-aligns its subscription so that
// ticks land on interval boundaries of the active time. This is best-effort
// compensation, not a real-time guarantee.
//
// # Concurrency
//
// State-mutating operations are guarded by a non-reentrant operation flag.
// A mutator entered while another one is in flight fails immediately with
// ErrConcurrentOperation. Callbacks, events and the logger are always
// invoked without holding the timer's internal mutex.
//
// # Countdown
//
// CountdownTimer owns a Timer and translates its ticks into remaining time,
// firing Events.OnComplete exactly once when the countdown reaches zero.
package timer
