package log

import (
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(events []Event, err error) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for _, e := range events {
			if !yield(e, nil) {
				return
			}
		}
		if err != nil {
			yield(Event{}, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, TimerID: "tea", Kind: KindCountdown, Category: CategoryState,
			StateChange: &StateChangeEvent{OldState: "STOPPED", NewState: "RUNNING", Reason: "start"}},
		{Timestamp: base, TimerID: "poll", Kind: KindTimer, Category: CategoryState,
			StateChange: &StateChangeEvent{OldState: "STOPPED", NewState: "RUNNING", Reason: "start"}},
		{Timestamp: base.Add(time.Second), TimerID: "tea", Kind: KindCountdown, Category: CategoryTick,
			Tick: &TickEvent{Count: 1, Elapsed: time.Second, Delta: time.Second}},
		{Timestamp: base.Add(2 * time.Second), TimerID: "tea", Kind: KindCountdown, Category: CategoryDrift,
			Drift: &DriftEvent{Drift: 600 * time.Millisecond, Interval: time.Second}},
		{Timestamp: base.Add(2 * time.Second), TimerID: "tea", Kind: KindCountdown, Category: CategoryTick,
			Tick: &TickEvent{Count: 2, Elapsed: 2 * time.Second, Delta: time.Second}},
		{Timestamp: base.Add(3 * time.Second), TimerID: "poll", Kind: KindTimer, Category: CategoryError,
			Error: &ErrorEventData{Message: "max duration exceeded", Context: "tick"}},
		{Timestamp: base.Add(3 * time.Second), TimerID: "poll", Kind: KindTimer, Category: CategoryState,
			StateChange: &StateChangeEvent{OldState: "RUNNING", NewState: "STOPPED", Reason: "max duration"}},
	}

	got, err := Summarize(seq(events, nil))
	require.NoError(t, err)
	require.Len(t, got, 2)

	poll, tea := got[0], got[1]
	assert.Equal(t, "poll", poll.TimerID)
	assert.Equal(t, KindTimer, poll.Kind)
	assert.Equal(t, "STOPPED", poll.State)
	assert.Equal(t, 2, poll.Transitions)
	assert.Equal(t, []string{"max duration exceeded"}, poll.Errors)
	assert.Equal(t, 3*time.Second, poll.Last.Sub(poll.First))

	assert.Equal(t, "tea", tea.TimerID)
	assert.Equal(t, KindCountdown, tea.Kind)
	assert.Equal(t, "RUNNING", tea.State)
	assert.Equal(t, int64(2), tea.Ticks)
	assert.Equal(t, 2*time.Second, tea.Elapsed)
	assert.Equal(t, 1, tea.Drifts)
	assert.Equal(t, 600*time.Millisecond, tea.MaxDrift)
	assert.Empty(t, tea.Errors)
}

func TestSummarizeStopsAtError(t *testing.T) {
	boom := errors.New("truncated")
	_, err := Summarize(seq([]Event{{TimerID: "a"}}, boom))
	assert.ErrorIs(t, err, boom)
}

func TestSummarizeEmpty(t *testing.T) {
	got, err := Summarize(seq(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
