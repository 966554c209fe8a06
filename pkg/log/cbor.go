package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Event logs are append-only streams of CBOR items. Timestamps keep
// nanosecond precision since tick deltas are often sub-millisecond.
var (
	eventEncMode = mustEncMode(cbor.EncOptions{
		Sort:        cbor.SortCoreDeterministic,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	})
	eventDecMode = mustDecMode(cbor.DecOptions{
		IndefLength: cbor.IndefLengthForbidden,
		MaxMapPairs: 64,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: event encoder options: %v", err))
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: event decoder options: %v", err))
	}
	return dm
}

// EncodeEvent returns the CBOR form of one event.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEncMode.Marshal(event)
}

// DecodeEvent parses one CBOR-encoded event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

func newEventEncoder(w io.Writer) *cbor.Encoder {
	return eventEncMode.NewEncoder(w)
}

func newEventDecoder(r io.Reader) *cbor.Decoder {
	return eventDecMode.NewDecoder(r)
}
