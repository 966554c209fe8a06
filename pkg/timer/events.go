package timer

import "time"

// Events holds the optional lifecycle callbacks of a timer.
// A nil field is a no-op.
type Events struct {
	// OnStart is called after the timer enters RUNNING through Start.
	OnStart func()

	// OnStop is called after the timer enters STOPPED from RUNNING or
	// PAUSED, including automatic stops from inside a tick.
	OnStop func()

	// OnPause is called after the timer enters PAUSED.
	OnPause func()

	// OnResume is called after the timer re-enters RUNNING through Resume.
	OnResume func()

	// OnReset is called after Reset.
	OnReset func()

	// OnTick is called after each successful tick. Plain timers pass the
	// elapsed whole seconds (floor); countdowns pass the remaining seconds
	// (ceiling).
	OnTick func(seconds int64)

	// OnDrift is called in precision mode when the nominal elapsed time
	// runs ahead of the measured elapsed time by more than half an interval.
	OnDrift func(drift time.Duration)

	// OnError is called for reported (non-returned) failures: illegal
	// pause/resume transitions, stopping a stopped timer, callback failures
	// and exceeding the maximum duration.
	OnError func(err error)

	// OnComplete is called once when a countdown reaches zero.
	// Plain timers never call it.
	OnComplete func()
}

func (e *Events) start() {
	if e.OnStart != nil {
		e.OnStart()
	}
}

func (e *Events) stop() {
	if e.OnStop != nil {
		e.OnStop()
	}
}

func (e *Events) pause() {
	if e.OnPause != nil {
		e.OnPause()
	}
}

func (e *Events) resume() {
	if e.OnResume != nil {
		e.OnResume()
	}
}

func (e *Events) reset() {
	if e.OnReset != nil {
		e.OnReset()
	}
}

func (e *Events) tick(seconds int64) {
	if e.OnTick != nil {
		e.OnTick(seconds)
	}
}

func (e *Events) drift(d time.Duration) {
	if e.OnDrift != nil {
		e.OnDrift(d)
	}
}

func (e *Events) error(err error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}

func (e *Events) complete() {
	if e.OnComplete != nil {
		e.OnComplete()
	}
}
