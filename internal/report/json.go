package report

import (
	"database/sql"
	"encoding/json"
	"io"

	"github.com/lox/roomaudit/internal/models"
)

// SummaryRecord is the exported form of a daily summary. Statistics that had
// no data are null.
type SummaryRecord struct {
	Room            string   `json:"room"`
	RoomType        string   `json:"room_type"`
	Date            string   `json:"date"`
	VolumeM3        float64  `json:"volume_m3"`
	DailyGoalKWh    float64  `json:"daily_goal_kwh"`
	DailyEnergyKWh  float64  `json:"daily_energy_kwh"`
	DailyCost       float64  `json:"daily_cost"`
	OverGoal        bool     `json:"over_goal"`
	OccupancyRatio  float64  `json:"occupancy_ratio"`
	AvgTemperature  *float64 `json:"avg_temperature"`
	MaxCO2          *float64 `json:"max_co2"`
	AvgLight        *float64 `json:"avg_light"`
	ValidReadings   int      `json:"valid_readings"`
	DroppedReadings int      `json:"dropped_readings"`
	Flags           []string `json:"flags"`
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func Record(s models.DailySummary) SummaryRecord {
	flags := s.Flags
	if flags == nil {
		flags = []string{}
	}
	return SummaryRecord{
		Room:            s.RoomID,
		RoomType:        s.RoomType,
		Date:            s.Date,
		VolumeM3:        s.VolumeM3,
		DailyGoalKWh:    s.GoalKWh,
		DailyEnergyKWh:  s.UsedKWh,
		DailyCost:       s.Cost,
		OverGoal:        s.OverGoal,
		OccupancyRatio:  s.OccupancyRatio,
		AvgTemperature:  nullable(s.AvgTemperature),
		MaxCO2:          nullable(s.MaxCO2),
		AvgLight:        nullable(s.AvgLight),
		ValidReadings:   s.ValidReadings,
		DroppedReadings: s.DroppedReadings,
		Flags:           flags,
	}
}

func Records(summaries []models.DailySummary) []SummaryRecord {
	out := make([]SummaryRecord, len(summaries))
	for i, s := range summaries {
		out[i] = Record(s)
	}
	return out
}

// WriteJSON writes summaries as an indented JSON array.
func WriteJSON(w io.Writer, summaries []models.DailySummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Records(summaries))
}
