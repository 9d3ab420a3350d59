package engine

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/lox/roomaudit/internal/models"
)

func sortedByTime(readings []models.Reading) []models.Reading {
	out := make([]models.Reading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func energyOf(r models.Reading) sql.NullFloat64   { return r.Energy }
func tempOf(r models.Reading) sql.NullFloat64     { return r.Temp }
func humidityOf(r models.Reading) sql.NullFloat64 { return r.Humidity }
func co2Of(r models.Reading) sql.NullFloat64      { return r.CO2 }
func lightOf(r models.Reading) sql.NullFloat64    { return r.Light }

// ComputeSummary computes the scalar summary and flags for one room's
// readings on one day. A nil room yields ErrMissingDimensions.
func (e *Engine) ComputeSummary(readings []models.Reading, room *models.Room) (*models.DailySummary, error) {
	date := ""
	if len(readings) > 0 {
		date = e.DateOf(sortedByTime(readings)[0].Timestamp)
	}
	return e.summarize(date, readings, room)
}

func (e *Engine) summarize(date string, readings []models.Reading, room *models.Room) (*models.DailySummary, error) {
	if room == nil {
		roomID := ""
		if len(readings) > 0 {
			roomID = readings[0].RoomID
		}
		return nil, fmt.Errorf("room %q: %w", roomID, ErrMissingDimensions)
	}

	group := sortedByTime(readings)
	summary := e.metrics(date, group, room)
	summary.Flags = EvaluateRules(summary, group, e.catalog.Limits(summary.RoomType))
	return summary, nil
}

// metrics fills every DailySummary field except Flags. group must be sorted.
func (e *Engine) metrics(date string, group []models.Reading, room *models.Room) *models.DailySummary {
	roomType := room.RoomType
	if roomType == "" && len(group) > 0 {
		roomType = group[0].RoomType
	}

	volume := room.Volume()
	goal := round2(volume * e.catalog.Baseline(roomType))
	if e.goalOverride != nil {
		goal = *e.goalOverride
	}

	clean := CleanSeries(columnOf(group, energyOf))
	cost := round2(clean.UsedKWh * e.pricer.RateFor(roomType))

	var occupancy float64
	if ratio := occupancyRatio(group); ratio.Valid {
		occupancy = round2(ratio.Float64)
	}

	return &models.DailySummary{
		RoomID:          room.RoomID,
		RoomType:        roomType,
		Date:            date,
		VolumeM3:        volume,
		GoalKWh:         goal,
		UsedKWh:         clean.UsedKWh,
		Cost:            cost,
		OverGoal:        clean.UsedKWh > goal,
		OccupancyRatio:  occupancy,
		AvgTemperature:  roundNull(columnOf(group, tempOf).mean(), 1),
		MaxCO2:          columnOf(group, co2Of).max(),
		AvgLight:        roundNull(columnOf(group, lightOf).mean(), 1),
		ValidReadings:   clean.Valid,
		DroppedReadings: clean.Dropped,
	}
}
