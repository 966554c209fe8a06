package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/ticktock-go/ticktock/pkg/clock"
	"github.com/ticktock-go/ticktock/pkg/log"
)

// TickFunc is invoked on every tick. A returned error (or a panic) stops
// the timer and is reported as a *CallbackError.
type TickFunc func() error

// CancelFunc stops the timer it was returned for. It is equivalent to Stop.
type CancelFunc func() error

// Timer is a repeating interval timer with explicit lifecycle states.
type Timer struct {
	mu sync.Mutex

	id     string
	kind   log.Kind
	cfg    Config
	events Events
	logger log.Logger
	sched  clock.Scheduler

	state State
	sub   clock.Subscription // non-nil iff RUNNING
	gen   uint64             // bumped whenever sub is replaced or withdrawn
	run   uint64             // bumped on every transition into RUNNING
	// period is the interval sub was created with. It differs from
	// cfg.Interval only while a re-alignment is pending.
	period time.Duration
	fn     TickFunc

	elapsed       time.Duration
	lastTick      time.Time
	tickCount     int64
	totalTickTime time.Duration

	busy atomic.Bool
}

// New creates a stopped timer. With cfg.AutoStart the timer is started
// right away with a callback that does nothing.
func New(cfg Config, opts ...Option) (*Timer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Timer{
		id:     uuid.NewString(),
		kind:   log.KindTimer,
		cfg:    cfg.withDefaults(),
		logger: log.NoopLogger{},
		sched:  clock.Real(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.cfg.AutoStart {
		if _, err := t.Start(noop); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func noop() error { return nil }

// acquire takes the operation flag.
func (t *Timer) acquire() error {
	if !t.busy.CompareAndSwap(false, true) {
		return ErrConcurrentOperation
	}
	return nil
}

func (t *Timer) release() {
	t.busy.Store(false)
}

// Start begins ticking from STOPPED and returns a function that stops the
// timer again.
func (t *Timer) Start(fn TickFunc) (CancelFunc, error) {
	if err := t.acquire(); err != nil {
		return nil, err
	}
	defer t.release()

	t.mu.Lock()
	if t.state != StateStopped {
		state := t.state
		t.mu.Unlock()
		return nil, &StateError{Op: "start", State: state}
	}
	if fn == nil {
		t.mu.Unlock()
		return nil, ErrInvalidCallback
	}
	t.enterRunningLocked(fn)
	t.mu.Unlock()

	t.recordState(StateStopped, StateRunning, "start")
	t.events.start()
	return t.Stop, nil
}

// Pause suspends ticking. Elapsed time up to now is kept. Calling Pause
// in any state but RUNNING is reported through Events.OnError.
func (t *Timer) Pause() {
	_ = t.pause(skipWait)
}

// PauseContext is like Pause but also waits until no tick of the withdrawn
// subscription can run anymore. Only ErrConcurrentOperation and ctx errors
// are returned; illegal transitions are still reported through OnError.
func (t *Timer) PauseContext(ctx context.Context) error {
	return t.pause(waitFor(ctx))
}

func (t *Timer) pause(wait waiter) error {
	if err := t.acquire(); err != nil {
		t.reportError(err, "pause")
		return err
	}
	defer t.release()

	t.mu.Lock()
	if t.state != StateRunning {
		state := t.state
		t.mu.Unlock()
		t.reportError(&StateError{Op: "pause", State: state}, "pause")
		return nil
	}
	now := t.sched.Now()
	if d := now.Sub(t.lastTick); d > 0 {
		t.elapsed += d
	}
	t.lastTick = now
	sub := t.detachLocked()
	t.state = StatePaused
	t.mu.Unlock()

	t.recordState(StateRunning, StatePaused, "pause")
	t.events.pause()
	return wait(sub)
}

// Resume continues ticking from PAUSED with fn as the tick callback.
// Illegal transitions and a nil fn are reported through Events.OnError.
func (t *Timer) Resume(fn TickFunc) {
	if err := t.acquire(); err != nil {
		t.reportError(err, "resume")
		return
	}
	defer t.release()

	t.mu.Lock()
	if t.state != StatePaused {
		state := t.state
		t.mu.Unlock()
		t.reportError(&StateError{Op: "resume", State: state}, "resume")
		return
	}
	if fn == nil {
		t.mu.Unlock()
		t.reportError(ErrInvalidCallback, "resume")
		return
	}
	t.enterRunningLocked(fn)
	t.mu.Unlock()

	t.recordState(StatePaused, StateRunning, "resume")
	t.events.resume()
}

// Stop halts the timer and clears elapsed time and tick metrics.
// Stopping a stopped timer is reported through Events.OnError and
// returned as a *StateError.
func (t *Timer) Stop() error {
	return t.stop(skipWait)
}

// StopContext is like Stop but also waits until no tick of the withdrawn
// subscription can run anymore, or ctx is done.
func (t *Timer) StopContext(ctx context.Context) error {
	return t.stop(waitFor(ctx))
}

func (t *Timer) stop(wait waiter) error {
	if err := t.acquire(); err != nil {
		return err
	}
	defer t.release()

	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		err := &StateError{Op: "stop", State: StateStopped}
		t.reportError(err, "stop")
		return err
	}
	old := t.state
	sub := t.haltLocked()
	t.mu.Unlock()

	t.recordState(old, StateStopped, "stop")
	t.events.stop()
	return wait(sub)
}

// Reset stops the timer from any state and emits OnReset.
func (t *Timer) Reset() error {
	return t.reset(skipWait)
}

// ResetContext is like Reset but also waits until no tick of the withdrawn
// subscription can run anymore, or ctx is done.
func (t *Timer) ResetContext(ctx context.Context) error {
	return t.reset(waitFor(ctx))
}

func (t *Timer) reset(wait waiter) error {
	if err := t.acquire(); err != nil {
		return err
	}
	defer t.release()

	t.mu.Lock()
	old := t.state
	sub := t.haltLocked()
	t.mu.Unlock()

	if old != StateStopped {
		t.events.stop()
	}
	t.recordState(old, StateStopped, "reset")
	t.events.reset()
	return wait(sub)
}

// SetInterval changes the tick interval used by later subscriptions.
// It is only allowed while STOPPED or PAUSED.
func (t *Timer) SetInterval(d time.Duration) error {
	if err := t.acquire(); err != nil {
		return err
	}
	defer t.release()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateRunning {
		return &StateError{Op: "set interval", State: t.state}
	}
	if d <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, d)
	}
	t.cfg.Interval = d
	return nil
}

// abort stops the timer from inside a tick and reports err. It does
// nothing when the timer is already stopped.
func (t *Timer) abort(reason string, err error) {
	if t.finish(reason) {
		t.reportError(err, "tick")
	}
}

// LoadSnapshot restores state and elapsed time from s. It is only allowed
// while STOPPED. A RUNNING snapshot resumes ticking with the last tick
// callback, or a no-op when the timer never ran.
func (t *Timer) LoadSnapshot(s Snapshot) error {
	return t.loadSnapshot(s, nil)
}

func (t *Timer) loadSnapshot(s Snapshot, fn TickFunc) error {
	if err := t.acquire(); err != nil {
		return err
	}
	defer t.release()

	t.mu.Lock()
	if t.state != StateStopped {
		state := t.state
		t.mu.Unlock()
		return &StateError{Op: "load snapshot", State: state}
	}
	if err := s.Validate(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.elapsed = fromMillis(s.ElapsedMs)
	t.tickCount = 0
	t.totalTickTime = 0
	switch s.State {
	case StateRunning:
		if fn == nil {
			fn = t.fn
		}
		if fn == nil {
			fn = noop
		}
		t.enterRunningLocked(fn)
	default:
		t.state = s.State
	}
	t.mu.Unlock()

	t.recordState(StateStopped, s.State, "load snapshot")
	return nil
}

// Dispose releases the timer's subscription. It is safe to call any number
// of times and never fails.
func (t *Timer) Dispose() {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}
	old := t.state
	t.haltLocked()
	t.mu.Unlock()

	t.recordState(old, StateStopped, "dispose")
	t.events.stop()
}

// finish stops the timer from inside a tick without taking the operation
// flag. It reports whether the timer was still active.
func (t *Timer) finish(reason string) bool {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return false
	}
	old := t.state
	t.haltLocked()
	t.mu.Unlock()

	t.recordState(old, StateStopped, reason)
	t.events.stop()
	return true
}

// enterRunningLocked switches to RUNNING and subscribes fn.
// Caller must hold t.mu.
func (t *Timer) enterRunningLocked(fn TickFunc) {
	t.state = StateRunning
	t.run++
	t.fn = fn
	t.lastTick = t.sched.Now()
	t.subscribeLocked()
}

// detachLocked withdraws the live subscription and returns it.
// Caller must hold t.mu.
func (t *Timer) detachLocked() clock.Subscription {
	sub := t.sub
	if sub != nil {
		sub.Cancel()
	}
	t.sub = nil
	t.gen++
	return sub
}

// haltLocked moves to STOPPED and clears the tick bookkeeping.
// Caller must hold t.mu.
func (t *Timer) haltLocked() clock.Subscription {
	sub := t.detachLocked()
	t.state = StateStopped
	t.elapsed = 0
	t.tickCount = 0
	t.totalTickTime = 0
	return sub
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Elapsed returns the accumulated active time.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// ElapsedMS returns the accumulated active time in whole milliseconds.
func (t *Timer) ElapsedMS() int64 {
	return millis(t.Elapsed())
}

// ElapsedSeconds returns the accumulated active time in whole seconds,
// rounded down.
func (t *Timer) ElapsedSeconds() int64 {
	return int64(t.Elapsed() / time.Second)
}

// Interval returns the configured tick interval.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg.Interval
}

// ID returns the identifier used in log events.
func (t *Timer) ID() string {
	return t.id
}

// Metrics returns the tick bookkeeping since the last start.
func (t *Timer) Metrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := Metrics{
		TotalTicks: t.tickCount,
		DriftMs:    toMillis(time.Duration(t.tickCount)*t.cfg.Interval - t.elapsed),
	}
	if t.tickCount > 0 {
		m.AverageTickMs = toMillis(t.totalTickTime) / float64(t.tickCount)
	}
	return m
}

// Snapshot returns the current state and elapsed time.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		State:     t.state,
		ElapsedMs: millis(t.elapsed),
	}
}

// waiter blocks until a withdrawn subscription has settled.
type waiter func(sub clock.Subscription) error

func skipWait(clock.Subscription) error { return nil }

func waitFor(ctx context.Context) waiter {
	return func(sub clock.Subscription) error {
		if sub == nil {
			return ctx.Err()
		}
		select {
		case <-sub.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// record stamps and forwards an event to the logger. A panicking logger
// is ignored.
func (t *Timer) record(event log.Event) {
	defer func() {
		_ = recover()
	}()

	event.Timestamp = t.sched.Now()
	event.TimerID = t.id
	event.Kind = t.kind
	t.logger.Log(event)
}

func (t *Timer) recordState(from, to State, reason string) {
	t.record(log.Event{
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

// reportError logs err and passes it to Events.OnError.
func (t *Timer) reportError(err error, op string) {
	t.record(log.Event{
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Message: err.Error(),
			Context: op,
		},
	})
	t.events.error(err)
}
