package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
)

func TestDisposeReleasesRealScheduler(t *testing.T) {
	defer goleak.VerifyNone(t)

	ticks := atomic.NewInt64(0)
	tm, err := New(Config{Interval: 2 * time.Millisecond})
	require.NoError(t, err)

	_, err = tm.Start(func() error {
		ticks.Inc()
		return nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, time.Millisecond)

	tm.Dispose()
	tm.Dispose()
	assert.Equal(t, StateStopped, tm.State())
}

func TestStopContextWaitsForTickGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	completed := atomic.NewBool(false)
	c, err := NewCountdown(0.02, WithCountdownInterval(time.Millisecond), WithCountdownEvents(Events{
		OnComplete: func() { completed.Store(true) },
	}))
	require.NoError(t, err)
	defer c.Dispose()

	_, err = c.Start()
	require.NoError(t, err)
	require.Eventually(t, completed.Load, 2*time.Second, time.Millisecond)

	require.NoError(t, c.SetTime(10))
	_, err = c.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.StopContext(ctx))
	assert.Equal(t, StateStopped, c.State())
}
