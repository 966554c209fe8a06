package log

import (
	"cmp"
	"iter"
	"slices"
	"time"
)

// Summary condenses the events of one timer.
type Summary struct {
	TimerID string
	Kind    Kind

	First time.Time
	Last  time.Time

	// State is the state entered by the last state change, empty if none
	// was logged.
	State       string
	Transitions int

	// Ticks and Elapsed come from the last tick event.
	Ticks   int64
	Elapsed time.Duration

	Drifts   int
	MaxDrift time.Duration

	// Errors lists reported error messages in log order.
	Errors []string
}

// Summarize groups events by timer, ordered by timer ID. It stops at the
// first error yielded by events.
func Summarize(events iter.Seq2[Event, error]) ([]Summary, error) {
	byID := make(map[string]*Summary)
	for event, err := range events {
		if err != nil {
			return nil, err
		}

		s, ok := byID[event.TimerID]
		if !ok {
			s = &Summary{TimerID: event.TimerID, Kind: event.Kind, First: event.Timestamp}
			byID[event.TimerID] = s
		}
		if event.Timestamp.Before(s.First) {
			s.First = event.Timestamp
		}
		if event.Timestamp.After(s.Last) {
			s.Last = event.Timestamp
		}

		switch {
		case event.StateChange != nil:
			s.State = event.StateChange.NewState
			s.Transitions++
		case event.Tick != nil:
			s.Ticks = event.Tick.Count
			s.Elapsed = event.Tick.Elapsed
		case event.Drift != nil:
			s.Drifts++
			s.MaxDrift = max(s.MaxDrift, event.Drift.Drift)
		case event.Error != nil:
			s.Errors = append(s.Errors, event.Error.Message)
		}
	}

	out := make([]Summary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return cmp.Compare(a.TimerID, b.TimerID)
	})
	return out, nil
}
