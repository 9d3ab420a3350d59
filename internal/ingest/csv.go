package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/roomaudit/internal/models"
)

// CSVDir loads readings.csv and rooms.csv from a directory. Columns are
// matched by header name.
type CSVDir struct {
	Dir string
	// Location is applied to timestamps without a zone. Defaults to UTC.
	Location *time.Location
}

func (c CSVDir) Load(ctx context.Context) (*Dataset, error) {
	d := newDataset()

	if err := c.readFile("rooms.csv", func(r io.Reader) error { return readRoomsCSV(r, d) }); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.readFile("readings.csv", func(r io.Reader) error { return readReadingsCSV(r, c.Location, d) }); err != nil {
		return nil, err
	}

	d.logSummary(c.Dir)
	return d, nil
}

func (c CSVDir) readFile(name string, read func(io.Reader) error) error {
	path := filepath.Join(c.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	if err := read(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

type csvRecord struct {
	index  map[string]int
	fields []string
}

func (r csvRecord) get(keys []string) string {
	for _, k := range keys {
		if i, ok := r.index[k]; ok && i < len(r.fields) {
			return r.fields[i]
		}
	}
	return ""
}

// eachRecord calls fn for every data row with its 1-based line number. Rows
// the reader cannot parse are recorded on d and skipped.
func eachRecord(r io.Reader, d *Dataset, fn func(line int, rec csvRecord)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	line := 1
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			d.reject("", fmt.Errorf("line %d: %w", parseErr.StartLine, err))
			continue
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		fn(line, csvRecord{index: index, fields: fields})
	}
}

func readReadingsCSV(r io.Reader, loc *time.Location, d *Dataset) error {
	return eachRecord(r, d, func(line int, rec csvRecord) {
		ts, tsErr := ParseTimestamp(rec.get(timestampKeys), loc)
		reading := models.Reading{
			Timestamp: ts,
			Temp:      ParseNumber(rec.get(tempKeys)),
			Humidity:  ParseNumber(rec.get(humidityKeys)),
			Energy:    ParseNumber(rec.get(energyKeys)),
			Light:     ParseNumber(rec.get(lightKeys)),
			Pressure:  ParseNumber(rec.get(pressureKeys)),
			CO2:       ParseNumber(rec.get(co2Keys)),
			Occupied:  ParseOccupancy(rec.get(occupancyKeys)),
		}
		d.addReading(line, rec.get(roomKeys), rec.get(roomTypeKeys), reading, tsErr)
	})
}

func readRoomsCSV(r io.Reader, d *Dataset) error {
	return eachRecord(r, d, func(line int, rec csvRecord) {
		d.addRoom(line, rec.get(roomKeys), rec.get(roomTypeKeys),
			ParseNumber(rec.get(widthKeys)),
			ParseNumber(rec.get(lengthKeys)),
			ParseNumber(rec.get(heightKeys)))
	})
}
