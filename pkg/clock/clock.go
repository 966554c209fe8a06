package clock

import (
	"sync"
	"time"
)

// Scheduler invokes a function repeatedly at a wall-clock interval.
// This interface allows the timers to run against a fake clock in tests.
type Scheduler interface {
	// Now returns the current time of this scheduler.
	Now() time.Time

	// Every invokes fn every interval until the returned Subscription is
	// cancelled. Invocations of a single subscription never overlap.
	// Panics if interval <= 0.
	Every(interval time.Duration, fn func()) Subscription
}

// Subscription is the cancellation handle of a periodic invocation.
type Subscription interface {
	// Cancel stops future invocations. It never blocks and is safe to call
	// more than once, including from inside the invoked function.
	Cancel()

	// Done is closed once the subscription is cancelled and no invocation
	// is running anymore.
	Done() <-chan struct{}
}

// Real returns the Scheduler backed by the standard library clock.
func Real() Scheduler {
	return realScheduler{}
}

type realScheduler struct{}

func (realScheduler) Now() time.Time {
	return time.Now()
}

func (realScheduler) Every(interval time.Duration, fn func()) Subscription {
	if interval <= 0 {
		panic("clock: interval must be greater than zero")
	}
	s := &tickerSubscription{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.loop(interval, fn)
	return s
}

// tickerSubscription runs fn on its own goroutine until Cancel is called.
type tickerSubscription struct {
	once   sync.Once
	stopCh chan struct{}
	done   chan struct{}
}

func (s *tickerSubscription) Cancel() {
	s.once.Do(func() {
		close(s.stopCh)
	})
}

func (s *tickerSubscription) Done() <-chan struct{} {
	return s.done
}

func (s *tickerSubscription) loop(interval time.Duration, fn func()) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// A tick and a cancellation can be ready at the same time;
			// cancellation wins.
			select {
			case <-s.stopCh:
				return
			default:
			}
			fn()
		case <-s.stopCh:
			return
		}
	}
}
