package log

import (
	"errors"
	"io"
	"iter"
	"os"
	"slices"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events from an event log. Zero fields match everything.
type Filter struct {
	// TimerID keeps the events of one timer.
	TimerID string

	// Kind keeps plain timers or countdowns only.
	Kind *Kind

	// Categories keeps events of any of the listed categories.
	Categories []Category

	// States keeps state changes that enter one of the listed states, such
	// as "STOPPED". Events of other categories pass unless Categories
	// excludes them.
	States []string

	// Since and Until bound the timestamp to [Since, Until).
	Since time.Time
	Until time.Time
}

// Match reports whether event passes the filter.
func (f Filter) Match(event Event) bool {
	if f.TimerID != "" && event.TimerID != f.TimerID {
		return false
	}
	if f.Kind != nil && event.Kind != *f.Kind {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, event.Category) {
		return false
	}
	if len(f.States) > 0 && event.StateChange != nil && !slices.Contains(f.States, event.StateChange.NewState) {
		return false
	}
	if !f.Since.IsZero() && event.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !event.Timestamp.Before(f.Until) {
		return false
	}
	return true
}

// Reader streams events written by FileLogger.
type Reader struct {
	dec    *cbor.Decoder
	filter Filter
	closer io.Closer
}

// NewReader reads events from r.
func NewReader(r io.Reader, filter Filter) *Reader {
	return &Reader{dec: newEventDecoder(r), filter: filter}
}

// Open reads the event log at path. The caller must Close the Reader.
func Open(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(f, filter)
	r.closer = f
	return r, nil
}

// Next returns the next matching event, or io.EOF at the end of the log.
// A log cut off in the middle of an event yields a decoding error instead.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.dec.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.Match(event) {
			return event, nil
		}
	}
}

// All iterates over the remaining matching events. Iteration stops after
// the first decoding error, which is yielded with a zero Event.
func (r *Reader) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			event, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the file opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
