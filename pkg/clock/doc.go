// Package clock provides the periodic scheduling primitive used by timers.
//
// A Scheduler invokes a function every interval until the returned
// Subscription is cancelled. Timers never assume the invocations are exactly
// periodic: they read Now on every tick and account elapsed time from the
// timestamp deltas.
//
// # Implementations
//
// Real runs one goroutine per subscription on top of time.Ticker. It is what
// production code uses.
//
// Fake is advanced manually and delivers ticks synchronously from Advance,
// which makes timer behavior deterministic in tests:
//
//	fake := clock.NewFake(time.Unix(0, 0))
//	sub := fake.Every(time.Second, func() { fmt.Println("tick") })
//	fake.Advance(3 * time.Second) // prints "tick" three times
//	sub.Cancel()
package clock
