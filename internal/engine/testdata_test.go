package engine

import (
	"database/sql"
	"time"

	"github.com/lox/roomaudit/internal/models"
)

var day = time.Date(2025, 4, 28, 0, 0, 0, 0, time.UTC)

func num(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func occupied(b bool) sql.NullBool {
	return sql.NullBool{Bool: b, Valid: true}
}

// comfortableDay returns n readings at 15 minute intervals that trip no rule
// for a Bedroom: in-range climate, steady 0.2 kWh per interval and constant
// occupancy.
func comfortableDay(roomID string, start time.Time, n int) []models.Reading {
	readings := make([]models.Reading, n)
	for i := range readings {
		readings[i] = models.Reading{
			RoomID:    roomID,
			RoomType:  "Bedroom",
			Timestamp: start.Add(time.Duration(i) * SamplingInterval),
			Temp:      num(24),
			Humidity:  num(45),
			Energy:    num(100 + 0.2*float64(i)),
			Light:     num(200),
			Pressure:  num(1013),
			CO2:       num(600),
			Occupied:  occupied(true),
		}
	}
	return readings
}

func bedroom(id string) models.Room {
	return models.Room{RoomID: id, RoomType: "Bedroom", Width: 4, Length: 5, Height: 2.5}
}
