package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/lox/roomaudit/internal/models"
)

// JSONFiles loads readings and rooms from JSON arrays on disk. Both the
// database export shape ("room", "CO2", "Occupancy") and the backend API
// shape ("co2", "occupancy", rooms keyed by "name") are accepted, as are
// numbers sent as strings and Extended JSON wrappers.
type JSONFiles struct {
	ReadingsPath string
	RoomsPath    string
	Location     *time.Location
}

func (j JSONFiles) Load(ctx context.Context) (*Dataset, error) {
	d := newDataset()

	rooms, err := os.ReadFile(j.RoomsPath)
	if err != nil {
		return nil, fmt.Errorf("read rooms: %w", err)
	}
	if err := ParseRooms(rooms, d); err != nil {
		return nil, fmt.Errorf("%s: %w", j.RoomsPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readings, err := os.ReadFile(j.ReadingsPath)
	if err != nil {
		return nil, fmt.Errorf("read readings: %w", err)
	}
	if _, err := ParseReadings(readings, j.Location, 0, d); err != nil {
		return nil, fmt.Errorf("%s: %w", j.ReadingsPath, err)
	}

	d.logSummary(j.ReadingsPath)
	return d, nil
}

func parseArray(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return gjson.Result{}, fmt.Errorf("expected a JSON array, got %s", doc.Type)
	}
	return doc, nil
}

// ParseReadings appends the readings in a JSON array to d. Row numbers in
// diagnostics start after offset. It returns the number of elements seen.
func ParseReadings(data []byte, loc *time.Location, offset int, d *Dataset) (int, error) {
	doc, err := parseArray(data)
	if err != nil {
		return 0, err
	}
	n := 0
	doc.ForEach(func(_, obj gjson.Result) bool {
		n++
		ts, tsErr := timeOf(field(obj, timestampKeys), loc)
		reading := models.Reading{
			Timestamp: ts,
			Temp:      numberOf(field(obj, tempKeys)),
			Humidity:  numberOf(field(obj, humidityKeys)),
			Energy:    numberOf(field(obj, energyKeys)),
			Light:     numberOf(field(obj, lightKeys)),
			Pressure:  numberOf(field(obj, pressureKeys)),
			CO2:       numberOf(field(obj, co2Keys)),
			Occupied:  boolOf(field(obj, occupancyKeys)),
		}
		d.addReading(offset+n, stringOf(field(obj, roomKeys)), stringOf(field(obj, roomTypeKeys)), reading, tsErr)
		return true
	})
	return n, nil
}

// ParseRooms appends the rooms in a JSON array to d.
func ParseRooms(data []byte, d *Dataset) error {
	doc, err := parseArray(data)
	if err != nil {
		return err
	}
	n := 0
	doc.ForEach(func(_, obj gjson.Result) bool {
		n++
		d.addRoom(n, stringOf(field(obj, roomKeys)), stringOf(field(obj, roomTypeKeys)),
			numberOf(field(obj, widthKeys)),
			numberOf(field(obj, lengthKeys)),
			numberOf(field(obj, heightKeys)))
		return true
	})
	return nil
}

func field(obj gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// wrapped unwraps Extended JSON values such as {"$numberDouble": "1.5"}.
func wrapped(v gjson.Result, prefix string) (gjson.Result, bool) {
	if !v.IsObject() {
		return v, false
	}
	for k, inner := range v.Map() {
		if strings.HasPrefix(k, prefix) {
			return inner, true
		}
	}
	return v, false
}

func numberOf(v gjson.Result) sql.NullFloat64 {
	if inner, ok := wrapped(v, "$number"); ok {
		v = inner
	}
	switch v.Type {
	case gjson.Number:
		return sql.NullFloat64{Float64: v.Num, Valid: true}
	case gjson.String:
		return ParseNumber(v.Str)
	}
	return sql.NullFloat64{}
}

func boolOf(v gjson.Result) sql.NullBool {
	switch v.Type {
	case gjson.True:
		return sql.NullBool{Bool: true, Valid: true}
	case gjson.False:
		return sql.NullBool{Bool: false, Valid: true}
	case gjson.String:
		return ParseOccupancy(v.Str)
	}
	return sql.NullBool{}
}

func stringOf(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	}
	return ""
}

func timeOf(v gjson.Result, loc *time.Location) (time.Time, error) {
	if inner, ok := wrapped(v, "$date"); ok {
		if ms, ok := wrapped(inner, "$numberLong"); ok {
			inner = ms
		}
		if ms := numberOf(inner); ms.Valid {
			return time.UnixMilli(int64(ms.Float64)).UTC(), nil
		}
		v = inner
	}
	if v.Type != gjson.String {
		return time.Time{}, fmt.Errorf("%s: %w", v.Type, ErrBadTimestamp)
	}
	return ParseTimestamp(v.Str, loc)
}
