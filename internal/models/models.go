package models

import (
	"database/sql"
	"time"
)

// Reading is one sample from a room sensor. Numeric fields that could not be
// coerced to a number are left invalid rather than zeroed.
type Reading struct {
	RoomID    string
	RoomType  string
	Timestamp time.Time
	Temp      sql.NullFloat64
	Humidity  sql.NullFloat64
	Energy    sql.NullFloat64 // cumulative kWh counter
	Light     sql.NullFloat64
	Pressure  sql.NullFloat64
	CO2       sql.NullFloat64
	Occupied  sql.NullBool
}

type Room struct {
	RoomID   string
	RoomType string
	Width    float64
	Length   float64
	Height   float64
}

func (r Room) Volume() float64 {
	return r.Width * r.Length * r.Height
}

type DailySummary struct {
	RoomID          string
	RoomType        string
	Date            string
	VolumeM3        float64
	GoalKWh         float64
	UsedKWh         float64
	Cost            float64
	OverGoal        bool
	OccupancyRatio  float64
	AvgTemperature  sql.NullFloat64
	MaxCO2          sql.NullFloat64
	AvgLight        sql.NullFloat64
	ValidReadings   int
	DroppedReadings int
	Flags           []string
}

// ImpactFlag quantifies one triggered condition. DurationMinutes is invalid for
// whole-day conditions that have no per-row duration.
type ImpactFlag struct {
	Label           string
	DurationMinutes sql.NullInt64
	EnergyKWh       float64
	Cost            float64
}

type RoomDayAudit struct {
	Date     string
	RoomID   string
	RoomType string
	Flags    []ImpactFlag
}

// Diagnostic records a group or row that could not be processed.
type Diagnostic struct {
	RoomID string
	Date   string
	Err    error
}

func (d Diagnostic) Error() string {
	if d.Date == "" {
		return d.RoomID + ": " + d.Err.Error()
	}
	return d.RoomID + " " + d.Date + ": " + d.Err.Error()
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}
