package report

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lox/roomaudit/internal/catalog"
	"github.com/lox/roomaudit/internal/engine"
	"github.com/lox/roomaudit/internal/models"
)

const (
	SummarySheet = "summary"
	FlagsSheet   = "flags"
)

var summaryHeader = []interface{}{
	"Room", "Room Type", "Date", "Volume (m3)", "Goal (kWh)", "Used (kWh)", "Cost",
	"Over Goal", "Occupancy", "Avg Temperature", "Max CO2", "Avg Light",
	"Valid Readings", "Dropped Readings", "Flags",
}

var flagsHeader = []interface{}{"Room", "Date", "Flag", "Category", "Detail"}

func cellValue(v sql.NullFloat64) interface{} {
	if !v.Valid {
		return ""
	}
	return v.Float64
}

// BuildSummaryXLSX renders summaries as a workbook with one row per summary
// and one row per raised flag. cat supplies the limits quoted in flag details.
func BuildSummaryXLSX(summaries []models.DailySummary, cat *catalog.Catalog) ([]byte, error) {
	if cat == nil {
		cat = catalog.Default()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(FlagsSheet); err != nil {
		return nil, fmt.Errorf("create flags sheet: %w", err)
	}

	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(FlagsSheet, "A1", &flagsHeader); err != nil {
		return nil, err
	}

	flagRow := 2
	for i, s := range summaries {
		row := []interface{}{
			s.RoomID, s.RoomType, s.Date, s.VolumeM3, s.GoalKWh, s.UsedKWh, s.Cost,
			s.OverGoal, s.OccupancyRatio, cellValue(s.AvgTemperature), cellValue(s.MaxCO2), cellValue(s.AvgLight),
			s.ValidReadings, s.DroppedReadings, strings.Join(s.Flags, "; "),
		}
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, fmt.Errorf("write summary row %d: %w", i+2, err)
		}

		limits := cat.Limits(s.RoomType)
		for _, label := range s.Flags {
			var category engine.Category
			if rule, ok := engine.RuleFor(label); ok {
				category = rule.Category
			}
			frow := []interface{}{s.RoomID, s.Date, label, string(category), engine.DescribeFlag(label, s.RoomType, limits)}
			if err := f.SetSheetRow(FlagsSheet, fmt.Sprintf("A%d", flagRow), &frow); err != nil {
				return nil, fmt.Errorf("write flag row %d: %w", flagRow, err)
			}
			flagRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
