package timer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot captures the bookkeeping needed to restore a timer.
// All values are milliseconds. RemainingMs and InitialMs are only set by
// countdowns.
type Snapshot struct {
	State       State  `json:"state" cbor:"1,keyasint"`
	ElapsedMs   int64  `json:"elapsedMs" cbor:"2,keyasint"`
	RemainingMs *int64 `json:"remainingMs,omitempty" cbor:"3,keyasint,omitempty"`
	InitialMs   *int64 `json:"initialMs,omitempty" cbor:"4,keyasint,omitempty"`
}

// Validate checks that the snapshot can be loaded.
func (s Snapshot) Validate() error {
	if !s.State.valid() {
		return fmt.Errorf("%w: unknown state %d", ErrInvalidSnapshot, uint8(s.State))
	}
	if s.ElapsedMs < 0 {
		return fmt.Errorf("%w: negative elapsed time %dms", ErrInvalidSnapshot, s.ElapsedMs)
	}
	if s.InitialMs != nil && *s.InitialMs <= 0 {
		return fmt.Errorf("%w: initial time must be positive, got %dms", ErrInvalidSnapshot, *s.InitialMs)
	}
	if s.RemainingMs != nil {
		if *s.RemainingMs < 0 {
			return fmt.Errorf("%w: negative remaining time %dms", ErrInvalidSnapshot, *s.RemainingMs)
		}
		if s.InitialMs != nil && *s.RemainingMs > *s.InitialMs {
			return fmt.Errorf("%w: remaining %dms exceeds initial %dms", ErrInvalidSnapshot, *s.RemainingMs, *s.InitialMs)
		}
	}
	return nil
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}

func fromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// snapshotEncMode encodes snapshots deterministically.
var snapshotEncMode cbor.EncMode

func init() {
	var err error
	snapshotEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create snapshot CBOR encoder mode: %v", err))
	}
}

// EncodeSnapshot encodes a snapshot to CBOR bytes.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// DecodeSnapshot decodes and validates CBOR bytes produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// MarshalSnapshotJSON encodes a snapshot as JSON.
func MarshalSnapshotJSON(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshotJSON decodes and validates a JSON snapshot.
func UnmarshalSnapshotJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
