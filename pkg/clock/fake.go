package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Scheduler for tests.
// Ticks are delivered synchronously on the goroutine calling Advance, in
// timestamp order. Now reports the due time of the tick being delivered.
type Fake struct {
	mu   sync.Mutex
	now  time.Time
	seq  uint64
	subs []*fakeSubscription
}

// NewFake creates a fake scheduler whose clock starts at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Every registers fn to be invoked every interval of fake time.
func (f *Fake) Every(interval time.Duration, fn func()) Subscription {
	if interval <= 0 {
		panic("clock: interval must be greater than zero")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	s := &fakeSubscription{
		fake:     f,
		seq:      f.seq,
		interval: interval,
		next:     f.now.Add(interval),
		fn:       fn,
		done:     make(chan struct{}),
	}
	f.subs = append(f.subs, s)
	return s
}

// Advance moves the fake clock forward by d, delivering every tick that
// becomes due on the way. Subscriptions created or cancelled by a tick
// take effect for the remainder of the advance.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		s := f.nextDue(target)
		if s == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = s.next
		s.next = s.next.Add(s.interval)
		s.running = true
		fn := s.fn
		f.mu.Unlock()

		// Call outside lock
		fn()

		f.mu.Lock()
		s.running = false
		if s.cancelled {
			s.closeDone()
		}
		f.mu.Unlock()
	}
}

// Subscriptions returns the number of live subscriptions.
func (f *Fake) Subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// nextDue returns the earliest subscription due at or before target.
// Ties go to the oldest subscription. Caller must hold f.mu.
func (f *Fake) nextDue(target time.Time) *fakeSubscription {
	var due *fakeSubscription
	for _, s := range f.subs {
		if s.next.After(target) {
			continue
		}
		if due == nil || s.next.Before(due.next) || (s.next.Equal(due.next) && s.seq < due.seq) {
			due = s
		}
	}
	return due
}

// remove drops s from the live set. Caller must hold f.mu.
func (f *Fake) remove(s *fakeSubscription) {
	for i, live := range f.subs {
		if live == s {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

type fakeSubscription struct {
	fake      *Fake
	seq       uint64
	interval  time.Duration
	next      time.Time
	fn        func()
	running   bool
	cancelled bool
	closed    bool
	done      chan struct{}
}

func (s *fakeSubscription) Cancel() {
	s.fake.mu.Lock()
	defer s.fake.mu.Unlock()

	if s.cancelled {
		return
	}
	s.cancelled = true
	s.fake.remove(s)
	if !s.running {
		s.closeDone()
	}
}

func (s *fakeSubscription) Done() <-chan struct{} {
	return s.done
}

// closeDone closes the done channel once. Caller must hold s.fake.mu.
func (s *fakeSubscription) closeDone() {
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}
