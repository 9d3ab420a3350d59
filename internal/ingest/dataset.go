package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/lox/roomaudit/internal/models"
)

// Dataset is the input of one batch: readings, room dimensions and the rows
// that could not be used.
type Dataset struct {
	Readings    []models.Reading
	Rooms       []models.Room
	Diagnostics []models.Diagnostic
	// QualityFlags counts implausible values by ValidateReading flag.
	QualityFlags map[string]int
}

type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}

func newDataset() *Dataset {
	return &Dataset{QualityFlags: make(map[string]int)}
}

// addReading keeps r if it can be grouped, otherwise records a diagnostic
// for the row. r's room fields are set from room and roomType.
func (d *Dataset) addReading(row int, room, roomType string, r models.Reading, tsErr error) {
	room = strings.TrimSpace(room)
	switch {
	case room == "":
		d.reject(room, fmt.Errorf("row %d: %w", row, ErrMissingRoom))
		return
	case tsErr != nil:
		d.reject(room, fmt.Errorf("row %d: %w", row, tsErr))
		return
	}

	r.RoomID = room
	r.RoomType = strings.TrimSpace(roomType)
	for _, flag := range ValidateReading(&r) {
		d.QualityFlags[flag]++
	}
	d.Readings = append(d.Readings, r)
}

func (d *Dataset) reject(room string, err error) {
	log.Printf("ingest: skipping reading: %v", err)
	d.Diagnostics = append(d.Diagnostics, models.Diagnostic{RoomID: room, Err: err})
}

// addRoom keeps rooms with an id and three usable dimensions. Rooms without
// them are left out so their readings are reported as missing dimensions.
func (d *Dataset) addRoom(row int, id, roomType string, width, length, height sql.NullFloat64) {
	id = strings.TrimSpace(id)
	if id == "" {
		d.reject("", fmt.Errorf("room row %d: %w", row, ErrMissingRoom))
		return
	}
	for _, v := range []sql.NullFloat64{width, length, height} {
		if !v.Valid || v.Float64 <= 0 {
			d.reject(id, fmt.Errorf("room row %d: %w", row, ErrBadDimensions))
			return
		}
	}
	d.Rooms = append(d.Rooms, models.Room{
		RoomID:   id,
		RoomType: strings.TrimSpace(roomType),
		Width:    width.Float64,
		Length:   length.Float64,
		Height:   height.Float64,
	})
}

// logSummary writes a one-line account of the load.
func (d *Dataset) logSummary(source string) {
	log.Printf("ingest: %s: %d readings, %d rooms, %d rejected rows", source, len(d.Readings), len(d.Rooms), len(d.Diagnostics))
	for flag, n := range d.QualityFlags {
		log.Printf("ingest: %s: %d readings flagged %s", source, n, flag)
	}
}
