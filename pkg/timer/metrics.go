package timer

// Metrics is a read-only view of the tick bookkeeping since the last start.
// Values are in milliseconds to keep the serialized form stable.
type Metrics struct {
	// TotalTicks is the number of ticks delivered.
	TotalTicks int64 `json:"totalTicks" cbor:"1,keyasint"`

	// AverageTickMs is the mean time between ticks; 0 without ticks.
	AverageTickMs float64 `json:"averageTickMs" cbor:"2,keyasint"`

	// DriftMs is the nominal elapsed time (ticks x interval) minus the
	// measured elapsed time.
	DriftMs float64 `json:"driftMs" cbor:"3,keyasint"`
}
