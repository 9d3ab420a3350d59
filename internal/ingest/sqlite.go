package ingest

import (
	"context"
	"database/sql"

	"github.com/lox/roomaudit/internal/models"
	"github.com/lox/roomaudit/internal/store"
)

// SQLite loads a dataset through a read-only store. Integer occupancy (1/0)
// is accepted alongside the textual forms.
type SQLite struct {
	Store *store.Store
	// Room limits readings to one room when set.
	Room string
}

func (s SQLite) Load(ctx context.Context) (*Dataset, error) {
	d := newDataset()

	rooms, err := s.Store.GetRooms(ctx)
	if err != nil {
		return nil, err
	}
	for i, r := range rooms {
		d.addRoom(i+1, r.Room.String, r.RoomType.String,
			ParseNumber(r.Width.String),
			ParseNumber(r.Length.String),
			ParseNumber(r.Height.String))
	}

	readings, err := s.Store.GetReadings(ctx, s.Room)
	if err != nil {
		return nil, err
	}
	for i, r := range readings {
		ts, tsErr := ParseTimestamp(r.Timestamp.String, s.Store.Location())
		reading := models.Reading{
			Timestamp: ts,
			Temp:      ParseNumber(r.Temperature.String),
			Humidity:  ParseNumber(r.Humidity.String),
			Energy:    ParseNumber(r.Energy.String),
			Light:     ParseNumber(r.Light.String),
			Pressure:  ParseNumber(r.Pressure.String),
			CO2:       ParseNumber(r.CO2.String),
			Occupied:  sqliteOccupancy(r.Occupancy),
		}
		d.addReading(i+1, r.Room.String, r.RoomType.String, reading, tsErr)
	}

	d.logSummary("sqlite")
	return d, nil
}

func sqliteOccupancy(v sql.NullString) sql.NullBool {
	switch v.String {
	case "1":
		return sql.NullBool{Bool: true, Valid: true}
	case "0":
		return sql.NullBool{Bool: false, Valid: true}
	}
	return ParseOccupancy(v.String)
}
