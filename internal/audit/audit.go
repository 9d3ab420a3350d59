// Package audit produces impact-quantified flags for human-readable room
// reports. Each condition is evaluated per room and day; row-level conditions
// carry an estimated duration and, for energy conditions, the energy and cost
// attributed to the matching rows.
package audit

import (
	"sort"

	"github.com/lox/roomaudit/internal/engine"
	"github.com/lox/roomaudit/internal/models"
)

const (
	LabelLightsUnoccupied = "lights on while unoccupied"
	LabelCO2Unoccupied    = "high CO2 while unoccupied"
	LabelTempFluctuation  = "rapid temperature fluctuation"
	LabelEnergyUnoccupied = "energy consumed while unoccupied"
	LabelOccupiedNoEnergy = "occupied but no energy consumption"
	LabelNoEnergy         = "no energy usage recorded"
	LabelEnergySpike      = "sudden spike in energy usage"
)

const (
	lightOnLux         = 100.0
	unoccupiedCO2PPM   = 800.0
	fluctuationLimitC  = 3.0
	unoccupiedDeltaKWh = 0.05
	spikeDeltaKWh      = 10.0
)

// Condition is one audit check. Row conditions set Match and are quantified
// with engine.EstimateImpact; whole-day conditions set Day and produce a flag
// with no duration.
type Condition struct {
	Label          string
	Category       engine.Category
	Match          engine.Predicate
	EstimateEnergy bool
	Day            func(rows []engine.Row) bool
}

func unoccupied(r engine.Row) bool {
	return r.Occupied.Valid && !r.Occupied.Bool
}

var conditions = []Condition{
	{
		Label:          LabelLightsUnoccupied,
		Category:       engine.CategoryEnergy,
		Match:          func(r engine.Row) bool { return r.Light.Valid && r.Light.Float64 > lightOnLux && unoccupied(r) },
		EstimateEnergy: true,
	},
	{
		Label:    LabelCO2Unoccupied,
		Category: engine.CategoryVentilation,
		Match:    func(r engine.Row) bool { return r.CO2.Valid && r.CO2.Float64 > unoccupiedCO2PPM && unoccupied(r) },
	},
	{
		Label:    LabelTempFluctuation,
		Category: engine.CategoryComfort,
		Day: func(rows []engine.Row) bool {
			var lo, hi float64
			seen := false
			for _, r := range rows {
				if !r.Temp.Valid {
					continue
				}
				if !seen || r.Temp.Float64 < lo {
					lo = r.Temp.Float64
				}
				if !seen || r.Temp.Float64 > hi {
					hi = r.Temp.Float64
				}
				seen = true
			}
			return seen && hi-lo > fluctuationLimitC
		},
	},
	{
		Label:          LabelEnergyUnoccupied,
		Category:       engine.CategoryEnergy,
		Match:          func(r engine.Row) bool { return unoccupied(r) && r.Delta > unoccupiedDeltaKWh },
		EstimateEnergy: true,
	},
	{
		Label:    LabelOccupiedNoEnergy,
		Category: engine.CategoryAnomaly,
		Day: func(rows []engine.Row) bool {
			occupied := false
			for _, r := range rows {
				if r.Occupied.Valid && r.Occupied.Bool {
					occupied = true
				}
			}
			return occupied && noConsumption(rows)
		},
	},
	{
		Label:    LabelNoEnergy,
		Category: engine.CategoryAnomaly,
		Day:      noConsumption,
	},
	{
		Label:    LabelEnergySpike,
		Category: engine.CategoryAnomaly,
		Day: func(rows []engine.Row) bool {
			for _, r := range rows {
				if r.Delta > spikeDeltaKWh {
					return true
				}
			}
			return false
		},
	},
}

func noConsumption(rows []engine.Row) bool {
	for _, r := range rows {
		if r.Delta > 0 {
			return false
		}
	}
	return true
}

// Conditions returns the audit conditions in evaluation order.
func Conditions() []Condition {
	out := make([]Condition, len(conditions))
	copy(out, conditions)
	return out
}

// CategoryOf returns the category of an audit label, or "" if unknown.
func CategoryOf(label string) engine.Category {
	for _, c := range conditions {
		if c.Label == label {
			return c.Category
		}
	}
	return ""
}

type Auditor struct {
	engine *engine.Engine
}

func New(e *engine.Engine) *Auditor {
	return &Auditor{engine: e}
}

// Evaluate runs every condition against one room's readings for one day.
func (a *Auditor) Evaluate(readings []models.Reading) []models.ImpactFlag {
	rows := engine.Rows(readings)
	var flags []models.ImpactFlag
	for _, c := range conditions {
		if c.Day != nil {
			if c.Day(rows) {
				flags = append(flags, models.ImpactFlag{Label: c.Label})
			}
			continue
		}
		if flag, ok := a.engine.EstimateImpact(readings, c.Label, c.Match, c.EstimateEnergy); ok {
			flags = append(flags, flag)
		}
	}
	return flags
}

// Run audits every room-day in readings, ordered by date then room. Rooms
// without a record in rooms are left out. Room types come from rooms when
// set and otherwise from the readings.
func (a *Auditor) Run(readings []models.Reading, rooms []models.Room) []models.RoomDayAudit {
	keys, groups := a.engine.GroupReadings(readings)
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].RoomID < keys[j].RoomID
	})
	index := engine.IndexRooms(rooms)

	audits := make([]models.RoomDayAudit, 0, len(keys))
	for _, key := range keys {
		room, ok := index[key.RoomID]
		if !ok {
			continue
		}
		group := groups[key]
		roomType := group[0].RoomType
		if room.RoomType != "" && room.RoomType != roomType {
			roomType = room.RoomType
			group = withRoomType(group, roomType)
		}
		audits = append(audits, models.RoomDayAudit{
			Date:     key.Date,
			RoomID:   key.RoomID,
			RoomType: roomType,
			Flags:    a.Evaluate(group),
		})
	}
	return audits
}

// withRoomType copies readings with their room type replaced so impact costs
// are priced by the room's recorded type.
func withRoomType(readings []models.Reading, roomType string) []models.Reading {
	out := make([]models.Reading, len(readings))
	for i, r := range readings {
		r.RoomType = roomType
		out[i] = r
	}
	return out
}

// Filter keeps the audits matching room and date. Empty arguments match
// everything.
func Filter(audits []models.RoomDayAudit, room, date string) []models.RoomDayAudit {
	var out []models.RoomDayAudit
	for _, a := range audits {
		if room != "" && a.RoomID != room {
			continue
		}
		if date != "" && a.Date != date {
			continue
		}
		out = append(out, a)
	}
	return out
}
