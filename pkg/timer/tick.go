package timer

import (
	"fmt"
	"time"

	"github.com/ticktock-go/ticktock/pkg/log"
)

// alignTolerance is the offset from an interval boundary below which a
// tick counts as aligned.
const alignTolerance = time.Millisecond

// subscribeLocked creates the subscription for a transition into RUNNING.
// In precision mode the first tick is delayed to the next interval
// boundary of the active time. Caller must hold t.mu.
func (t *Timer) subscribeLocked() {
	period := t.cfg.Interval
	if t.cfg.Precision {
		period = alignedDelay(t.elapsed, t.cfg.Interval)
	}
	t.scheduleLocked(period)
}

// scheduleLocked replaces the live subscription with one firing every
// period. Ticks of the previous subscription are discarded.
// Caller must hold t.mu.
func (t *Timer) scheduleLocked(period time.Duration) {
	if t.sub != nil {
		t.sub.Cancel()
	}
	t.gen++
	gen := t.gen
	t.period = period
	t.sub = t.sched.Every(period, func() {
		t.tick(gen)
	})
}

// realignLocked moves the subscription back onto interval boundaries after
// a tick landed off them, and restores the plain interval once it is back.
// Caller must hold t.mu.
func (t *Timer) realignLocked() {
	iv := t.cfg.Interval
	offset := t.elapsed % iv
	if offset > iv/2 {
		offset -= iv
	}

	next := iv - offset
	if offset.Abs() <= alignTolerance {
		next = iv
	}
	if next != t.period {
		t.scheduleLocked(next)
	}
}

// alignedDelay returns the time from elapsed to the next interval boundary.
func alignedDelay(elapsed, iv time.Duration) time.Duration {
	next := iv - elapsed%iv
	if next <= alignTolerance {
		next += iv
	}
	return next
}

// tick is the single tick handler of every subscription.
func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	if t.state != StateRunning || t.gen != gen {
		t.mu.Unlock()
		return
	}

	now := t.sched.Now()
	delta := now.Sub(t.lastTick)
	if delta < 0 {
		delta = 0
	}
	t.elapsed += delta
	t.totalTickTime += delta
	t.tickCount++
	t.lastTick = now

	elapsed := t.elapsed
	count := t.tickCount
	run := t.run
	fn := t.fn
	interval := t.cfg.Interval

	if elapsed > t.cfg.MaxDuration {
		maxDuration := t.cfg.MaxDuration
		t.haltLocked()
		t.mu.Unlock()

		t.recordState(StateRunning, StateStopped, "max duration")
		t.events.stop()
		t.reportError(fmt.Errorf("%w: elapsed %s, limit %s", ErrMaxDurationExceeded, elapsed, maxDuration), "tick")
		return
	}

	var drift time.Duration
	drifted := false
	if t.cfg.Precision {
		drift = time.Duration(count)*interval - elapsed
		drifted = drift > interval/2
		t.realignLocked()
	}
	t.mu.Unlock()

	if drifted {
		t.record(log.Event{
			Category: log.CategoryDrift,
			Drift:    &log.DriftEvent{Drift: drift, Interval: interval},
		})
		t.events.drift(drift)
	}

	if err := invoke(fn); err != nil {
		t.mu.Lock()
		stopped := false
		if t.run == run && t.state == StateRunning {
			t.haltLocked()
			stopped = true
		}
		t.mu.Unlock()

		if stopped {
			t.recordState(StateRunning, StateStopped, "callback error")
			t.events.stop()
		}
		t.reportError(&CallbackError{Err: err}, "tick")
		return
	}

	t.record(log.Event{
		Category: log.CategoryTick,
		Tick:     &log.TickEvent{Count: count, Elapsed: elapsed, Delta: delta},
	})
	t.events.tick(int64(elapsed / time.Second))
}

// invoke runs fn and converts a panic into an error.
func invoke(fn TickFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
