package engine

import (
	"database/sql"

	"github.com/lox/roomaudit/internal/models"
)

// column is one numeric field across a group. Unset entries are skipped by
// every aggregate.
type column []sql.NullFloat64

func columnOf(readings []models.Reading, field func(models.Reading) sql.NullFloat64) column {
	c := make(column, len(readings))
	for i, r := range readings {
		c[i] = field(r)
	}
	return c
}

func (c column) min() sql.NullFloat64 {
	var out sql.NullFloat64
	for _, v := range c {
		if v.Valid && (!out.Valid || v.Float64 < out.Float64) {
			out = v
		}
	}
	return out
}

func (c column) max() sql.NullFloat64 {
	var out sql.NullFloat64
	for _, v := range c {
		if v.Valid && (!out.Valid || v.Float64 > out.Float64) {
			out = v
		}
	}
	return out
}

func (c column) mean() sql.NullFloat64 {
	var sum float64
	n := 0
	for _, v := range c {
		if v.Valid {
			sum += v.Float64
			n++
		}
	}
	if n == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: sum / float64(n), Valid: true}
}

func (c column) any(pred func(float64) bool) bool {
	for _, v := range c {
		if v.Valid && pred(v.Float64) {
			return true
		}
	}
	return false
}

func roundNull(v sql.NullFloat64, places int) sql.NullFloat64 {
	if !v.Valid {
		return v
	}
	return sql.NullFloat64{Float64: round(v.Float64, places), Valid: true}
}

// occupancyRatio is the share of readings with known occupancy that were
// occupied. It is unset when no reading reports occupancy.
func occupancyRatio(readings []models.Reading) sql.NullFloat64 {
	known, occupied := 0, 0
	for _, r := range readings {
		if !r.Occupied.Valid {
			continue
		}
		known++
		if r.Occupied.Bool {
			occupied++
		}
	}
	if known == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(occupied) / float64(known), Valid: true}
}

func anyOccupied(readings []models.Reading) bool {
	for _, r := range readings {
		if r.Occupied.Valid && r.Occupied.Bool {
			return true
		}
	}
	return false
}

// allUnoccupied is true only if every reading explicitly reports no
// occupancy. Unknown occupancy is not treated as unoccupied.
func allUnoccupied(readings []models.Reading) bool {
	for _, r := range readings {
		if !r.Occupied.Valid || r.Occupied.Bool {
			return false
		}
	}
	return true
}
