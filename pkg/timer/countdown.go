package timer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ticktock-go/ticktock/pkg/clock"
	"github.com/ticktock-go/ticktock/pkg/log"
)

// DefaultCountdownInterval is the tick interval of a countdown unless
// WithCountdownInterval is given.
const DefaultCountdownInterval = time.Second

// CountdownTimer counts down from an initial duration and fires
// Events.OnComplete once when it reaches zero.
type CountdownTimer struct {
	timer    *Timer
	interval time.Duration
	events   Events

	mu        sync.Mutex
	initial   time.Duration
	remaining time.Duration
	ticks     int64 // credited since remaining was last refilled
}

type countdownOptions struct {
	interval  time.Duration
	events    Events
	autoStart bool
	precision bool
	timerOpts []Option
}

// CountdownOption configures a CountdownTimer.
type CountdownOption func(*countdownOptions)

// WithCountdownInterval sets the tick interval. Defaults to one second.
func WithCountdownInterval(d time.Duration) CountdownOption {
	return func(o *countdownOptions) {
		o.interval = d
	}
}

// WithCountdownEvents sets the lifecycle callbacks. OnTick receives the
// remaining whole seconds, rounded up.
func WithCountdownEvents(events Events) CountdownOption {
	return func(o *countdownOptions) {
		o.events = events
	}
}

// WithCountdownAutoStart starts the countdown on construction.
func WithCountdownAutoStart() CountdownOption {
	return func(o *countdownOptions) {
		o.autoStart = true
	}
}

// WithCountdownPrecision enables drift reporting and re-alignment.
func WithCountdownPrecision() CountdownOption {
	return func(o *countdownOptions) {
		o.precision = true
	}
}

// WithCountdownLogger sets the logger receiving the countdown's events.
func WithCountdownLogger(logger log.Logger) CountdownOption {
	return func(o *countdownOptions) {
		o.timerOpts = append(o.timerOpts, WithLogger(logger))
	}
}

// WithCountdownScheduler sets the scheduling primitive.
func WithCountdownScheduler(s clock.Scheduler) CountdownOption {
	return func(o *countdownOptions) {
		o.timerOpts = append(o.timerOpts, WithScheduler(s))
	}
}

// WithCountdownID overrides the generated ID used in log events.
func WithCountdownID(id string) CountdownOption {
	return func(o *countdownOptions) {
		o.timerOpts = append(o.timerOpts, WithID(id))
	}
}

// NewCountdown creates a stopped countdown of the given number of seconds.
// Seconds must be finite and positive, the interval positive, else
// ErrInvalidDuration is returned.
func NewCountdown(seconds float64, opts ...CountdownOption) (*CountdownTimer, error) {
	o := countdownOptions{interval: DefaultCountdownInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return newCountdown(seconds, o)
}

func newCountdown(seconds float64, o countdownOptions) (*CountdownTimer, error) {
	initial, err := secondsToDuration(seconds)
	if err != nil {
		return nil, err
	}
	if o.interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidDuration, o.interval)
	}

	c := &CountdownTimer{
		interval:  o.interval,
		events:    o.events,
		initial:   initial,
		remaining: initial,
	}

	// The owned timer reports lifecycle changes directly; ticks, resets
	// and completion are translated here.
	inner := o.events
	inner.OnTick = nil
	inner.OnReset = nil
	inner.OnComplete = nil

	timerOpts := append([]Option{WithEvents(inner), withKind(log.KindCountdown)}, o.timerOpts...)
	// The owned timer counts partial intervals cut short by Pause as
	// active time, which never reduces remaining. The runaway guard is
	// enforced per credited tick in tick instead.
	c.timer, err = New(Config{
		Interval:  o.interval,
		Precision: o.precision,
	}, timerOpts...)
	if err != nil {
		return nil, err
	}

	if o.autoStart {
		if _, err := c.Start(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// secondsToDuration validates a countdown length.
func secondsToDuration(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%w: %v seconds", ErrInvalidDuration, seconds)
	}
	// Twice the length must still be representable.
	if seconds > float64(Unbounded/2)/float64(time.Second) {
		return 0, fmt.Errorf("%w: %v seconds is out of range", ErrInvalidDuration, seconds)
	}
	d := time.Duration(seconds * float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("%w: %v seconds rounds to zero", ErrInvalidDuration, seconds)
	}
	return d, nil
}

// Start begins counting down. A completed countdown starts over from its
// initial time.
func (c *CountdownTimer) Start() (CancelFunc, error) {
	c.mu.Lock()
	if c.remaining <= 0 && c.timer.State() == StateStopped {
		c.refillLocked(c.initial)
	}
	c.mu.Unlock()

	return c.timer.Start(c.tick)
}

func (c *CountdownTimer) tick() error {
	c.mu.Lock()
	if c.remaining <= 0 {
		c.mu.Unlock()
		return nil
	}
	c.ticks++
	if limit := tickBudget(c.initial, c.interval); c.ticks > limit {
		ticks := c.ticks
		c.mu.Unlock()
		c.timer.abort("max duration", fmt.Errorf("%w: %d ticks, limit %d", ErrMaxDurationExceeded, ticks, limit))
		return nil
	}
	c.remaining -= c.interval
	if c.remaining < 0 {
		c.remaining = 0
	}
	remaining := c.remaining
	c.mu.Unlock()

	c.events.tick(ceilSeconds(remaining))

	if remaining == 0 {
		c.timer.finish("complete")
		c.events.complete()
	}
	return nil
}

// Pause suspends the countdown.
func (c *CountdownTimer) Pause() {
	c.timer.Pause()
}

// PauseContext is like Pause but waits for in-flight ticks.
func (c *CountdownTimer) PauseContext(ctx context.Context) error {
	return c.timer.PauseContext(ctx)
}

// Resume continues a paused countdown.
func (c *CountdownTimer) Resume() {
	c.timer.Resume(c.tick)
}

// Stop halts the countdown. The remaining time is kept.
func (c *CountdownTimer) Stop() error {
	return c.timer.Stop()
}

// StopContext is like Stop but waits for in-flight ticks.
func (c *CountdownTimer) StopContext(ctx context.Context) error {
	return c.timer.StopContext(ctx)
}

// Reset stops the countdown and restores the initial time.
func (c *CountdownTimer) Reset() error {
	return c.reset(c.timer.Reset)
}

// ResetContext is like Reset but waits for in-flight ticks.
func (c *CountdownTimer) ResetContext(ctx context.Context) error {
	return c.reset(func() error {
		return c.timer.ResetContext(ctx)
	})
}

func (c *CountdownTimer) reset(resetTimer func() error) error {
	err := resetTimer()
	if errors.Is(err, ErrConcurrentOperation) {
		return err
	}

	c.mu.Lock()
	c.refillLocked(c.initial)
	c.mu.Unlock()

	c.events.reset()
	return err
}

// SetTime stops the countdown and replaces its length. It is allowed in
// any state.
func (c *CountdownTimer) SetTime(seconds float64) error {
	initial, err := secondsToDuration(seconds)
	if err != nil {
		return err
	}
	if err := c.timer.Reset(); err != nil {
		return err
	}

	c.mu.Lock()
	c.initial = initial
	c.refillLocked(initial)
	c.mu.Unlock()
	return nil
}

// refillLocked sets the remaining time and credits the ticks that would
// have consumed the difference to the initial time. Caller must hold c.mu.
func (c *CountdownTimer) refillLocked(remaining time.Duration) {
	c.remaining = remaining
	c.ticks = ceilDiv(c.initial-remaining, c.interval)
}

// tickBudget bounds the credited ticks of one countdown run at twice the
// ticks needed to reach zero.
func tickBudget(initial, interval time.Duration) int64 {
	return 2 * ceilDiv(initial, interval)
}

func ceilDiv(d, unit time.Duration) int64 {
	n := int64(d / unit)
	if d%unit > 0 {
		n++
	}
	return n
}

// Remaining returns the time left.
func (c *CountdownTimer) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// RemainingSeconds returns the time left in whole seconds, rounded up.
func (c *CountdownTimer) RemainingSeconds() int64 {
	return ceilSeconds(c.Remaining())
}

// ElapsedSeconds returns the counted down time in whole seconds, rounded
// down.
func (c *CountdownTimer) ElapsedSeconds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64((c.initial - c.remaining) / time.Second)
}

// Progress returns the completed fraction in [0, 1].
func (c *CountdownTimer) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := 1 - float64(c.remaining)/float64(c.initial)
	return math.Min(math.Max(p, 0), 1)
}

// State returns the lifecycle state of the owned timer.
func (c *CountdownTimer) State() State {
	return c.timer.State()
}

// Metrics returns the tick metrics of the owned timer.
func (c *CountdownTimer) Metrics() Metrics {
	return c.timer.Metrics()
}

// Interval returns the tick interval.
func (c *CountdownTimer) Interval() time.Duration {
	return c.interval
}

// ID returns the identifier used in log events.
func (c *CountdownTimer) ID() string {
	return c.timer.ID()
}

// Snapshot returns the owned timer's snapshot extended with the remaining
// and initial time.
func (c *CountdownTimer) Snapshot() Snapshot {
	s := c.timer.Snapshot()

	c.mu.Lock()
	remaining := millis(c.remaining)
	initial := millis(c.initial)
	c.mu.Unlock()

	s.RemainingMs = &remaining
	s.InitialMs = &initial
	return s
}

// LoadSnapshot restores a countdown while it is stopped. Without
// RemainingMs the remaining time is derived from the elapsed time.
func (c *CountdownTimer) LoadSnapshot(s Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	initial := c.initial
	if s.InitialMs != nil {
		initial = fromMillis(*s.InitialMs)
	}

	var remaining time.Duration
	if s.RemainingMs != nil {
		remaining = fromMillis(*s.RemainingMs)
		if remaining > initial {
			return fmt.Errorf("%w: remaining %s exceeds initial %s", ErrInvalidSnapshot, remaining, initial)
		}
	} else {
		remaining = initial - fromMillis(s.ElapsedMs)
		if remaining < 0 {
			remaining = 0
		}
	}

	// Ticks of a restored RUNNING countdown block on c.mu until the new
	// values are in place.
	if err := c.timer.loadSnapshot(s, c.tick); err != nil {
		return err
	}
	c.initial = initial
	c.refillLocked(remaining)
	return nil
}

// Dispose releases the owned timer. It is safe to call more than once.
func (c *CountdownTimer) Dispose() {
	c.timer.Dispose()
}

// StartCountdown starts a countdown ticking once per second. eachSecond
// receives the remaining whole seconds, atEnd is called on completion.
// Either may be nil.
func StartCountdown(seconds float64, eachSecond func(remaining int64), atEnd func(), opts ...CountdownOption) (*CountdownTimer, error) {
	o := countdownOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	o.interval = time.Second
	o.events.OnTick = eachSecond
	o.events.OnComplete = atEnd
	o.autoStart = true
	return newCountdown(seconds, o)
}

// ceilSeconds rounds a non-negative duration up to whole seconds.
func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
