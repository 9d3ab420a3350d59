package ingest

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lox/roomaudit/internal/models"
)

var (
	ErrBadTimestamp  = errors.New("unparsable timestamp")
	ErrMissingRoom   = errors.New("missing room id")
	ErrBadDimensions = errors.New("unusable room dimensions")
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp accepts RFC 3339 or a zone-less "2006-01-02 15:04:05" form.
// Zone-less values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", s, ErrBadTimestamp)
}

// ParseNumber coerces a textual number. Anything else, including NaN and
// infinities, is unset.
func ParseNumber(s string) sql.NullFloat64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// ParseOccupancy accepts "true" or "false" in any case.
func ParseOccupancy(s string) sql.NullBool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return sql.NullBool{Bool: true, Valid: true}
	case "false":
		return sql.NullBool{Bool: false, Valid: true}
	}
	return sql.NullBool{}
}

const (
	FlagTempOutOfRange     = "temp_out_of_range"
	FlagHumidityInvalid    = "humidity_invalid"
	FlagEnergyNegative     = "energy_negative"
	FlagLightNegative      = "light_negative"
	FlagPressureOutOfRange = "pressure_out_of_range"
	FlagCO2OutOfRange      = "co2_out_of_range"
)

// ValidateReading reports physically implausible values. The reading is not
// modified; the flags only feed load statistics.
func ValidateReading(r *models.Reading) []string {
	var flags []string

	if r.Temp.Valid {
		if r.Temp.Float64 < -30 || r.Temp.Float64 > 70 {
			flags = append(flags, FlagTempOutOfRange)
		}
	}

	if r.Humidity.Valid {
		if r.Humidity.Float64 < 0 || r.Humidity.Float64 > 100 {
			flags = append(flags, FlagHumidityInvalid)
		}
	}

	if r.Energy.Valid && r.Energy.Float64 < 0 {
		flags = append(flags, FlagEnergyNegative)
	}

	if r.Light.Valid && r.Light.Float64 < 0 {
		flags = append(flags, FlagLightNegative)
	}

	if r.Pressure.Valid {
		if r.Pressure.Float64 < 800 || r.Pressure.Float64 > 1100 {
			flags = append(flags, FlagPressureOutOfRange)
		}
	}

	if r.CO2.Valid {
		if r.CO2.Float64 < 0 || r.CO2.Float64 > 10000 {
			flags = append(flags, FlagCO2OutOfRange)
		}
	}

	return flags
}
