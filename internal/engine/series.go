package engine

import (
	"database/sql"
	"time"
)

const (
	// MaxIntervalDeltaKWh is the largest plausible consumption for one room in
	// one sampling interval. Deltas at or above it are treated as rollovers or
	// corrupted readings.
	MaxIntervalDeltaKWh = 3.0
	// SpikeDeltaKWh is the raw delta above which a day is flagged for a sudden spike.
	SpikeDeltaKWh = 20.0

	SamplingInterval       = 15 * time.Minute
	ExpectedReadingsPerDay = 96
	MinReadingsPerDay      = 85
)

type CleanResult struct {
	UsedKWh  float64
	Accepted int
	Valid    int
	Dropped  int
}

// AcceptDelta reports whether an interval delta counts towards consumption.
func AcceptDelta(d float64) bool {
	return d > 0 && d < MaxIntervalDeltaKWh
}

// Deltas returns consecutive differences of a cumulative series. The result
// has the same length as values; element 0, and any element whose value or
// predecessor is unset, is invalid.
func Deltas(values []sql.NullFloat64) []sql.NullFloat64 {
	deltas := make([]sql.NullFloat64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i].Valid && values[i-1].Valid {
			deltas[i] = sql.NullFloat64{Float64: values[i].Float64 - values[i-1].Float64, Valid: true}
		}
	}
	return deltas
}

// CleanSeries sums the accepted deltas of a time-ordered cumulative energy
// series. The first reading is the baseline and counts as valid without
// producing a delta.
func CleanSeries(values []sql.NullFloat64) CleanResult {
	if len(values) == 0 {
		return CleanResult{}
	}

	var sum float64
	accepted := 0
	for _, d := range Deltas(values) {
		if d.Valid && AcceptDelta(d.Float64) {
			sum += d.Float64
			accepted++
		}
	}

	valid := accepted + 1
	return CleanResult{
		UsedKWh:  round2(sum),
		Accepted: accepted,
		Valid:    valid,
		Dropped:  len(values) - valid,
	}
}
