package engine

import (
	"database/sql"
	"time"

	"github.com/lox/roomaudit/internal/models"
)

// Row is a reading with its raw energy delta from the previous reading of the
// full series. Delta is 0 for the first row and wherever either energy value
// is unset.
type Row struct {
	models.Reading
	Delta float64
}

type Predicate func(Row) bool

// Rows sorts readings by time and attaches raw deltas.
func Rows(readings []models.Reading) []Row {
	sorted := sortedByTime(readings)
	deltas := Deltas(columnOf(sorted, energyOf))
	rows := make([]Row, len(sorted))
	for i, r := range sorted {
		rows[i] = Row{Reading: r, Delta: deltas[i].Float64}
	}
	return rows
}

// EstimateImpact selects the rows of one room's series matching pred and
// returns how long the condition held and, if estimateEnergy is set, the
// energy consumed and its cost. Deltas are taken between consecutive matched
// rows only, even when they are not adjacent in the series, and filtered with
// the same accept window as CleanSeries. The series may span several days.
// ok is false when no row matches.
func (e *Engine) EstimateImpact(readings []models.Reading, label string, pred Predicate, estimateEnergy bool) (flag models.ImpactFlag, ok bool) {
	rows := Rows(readings)

	var matched []Row
	for _, r := range rows {
		if pred(r) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return models.ImpactFlag{}, false
	}

	flag = models.ImpactFlag{
		Label:           label,
		DurationMinutes: sql.NullInt64{Int64: int64(len(matched)) * int64(SamplingInterval/time.Minute), Valid: true},
	}
	if !estimateEnergy {
		return flag, true
	}

	energies := make([]sql.NullFloat64, len(matched))
	for i, r := range matched {
		energies[i] = r.Energy
	}
	var sum float64
	for _, d := range Deltas(energies) {
		if d.Valid && AcceptDelta(d.Float64) {
			sum += d.Float64
		}
	}

	rate := e.impactPricer.RateFor(rows[0].RoomType)
	flag.EnergyKWh = round2(sum)
	flag.Cost = round2(sum * rate)
	return flag, true
}
