package engine

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lox/roomaudit/internal/catalog"
	"github.com/lox/roomaudit/internal/models"
)

const (
	FlagTempBelowMin          = "temperature below min"
	FlagTempAboveMax          = "temperature above max"
	FlagTempFluctuation       = "rapid temperature fluctuation"
	FlagHumidityOutOfRange    = "humidity out of range"
	FlagHumidityHigh          = "consistently high humidity"
	FlagCO2Exceeded           = "CO2 exceeded limit"
	FlagCO2Unoccupied         = "high CO2 despite zero occupancy"
	FlagLightingWhileOccupied = "lighting outside comfort range while occupied"
	FlagEnergyWaste           = "energy waste while mostly unoccupied"
	FlagOccupiedNoEnergy      = "occupancy but no energy use"
	FlagNoEnergy              = "no energy usage recorded"
	FlagDataGap               = "sensor data gap"
	FlagDuplicateTimestamps   = "duplicate timestamps found"
	FlagEnergySpike           = "sudden spike in energy usage"
)

type Category string

const (
	CategoryCompliance  Category = "compliance"
	CategoryComfort     Category = "comfort"
	CategoryVentilation Category = "ventilation"
	CategoryEnergy      Category = "energy"
	CategoryAnomaly     Category = "anomaly"
	CategoryData        Category = "data"
)

const (
	fluctuationLimitC     = 5.0
	highHumidityPct       = 65.0
	unoccupiedCO2PPM      = 1000.0
	mostlyUnoccupiedRatio = 0.2
	meaningfulEnergyKWh   = 0.5
)

// Group is the evaluation context for one room-day: its summary, its
// time-ordered readings and the limits for its room type.
type Group struct {
	Summary  *models.DailySummary
	Readings []models.Reading
	Limits   catalog.Limits

	temp      column
	humidity  column
	co2       column
	light     column
	deltas    column
	occupancy sql.NullFloat64
}

func newGroup(summary *models.DailySummary, readings []models.Reading, limits catalog.Limits) *Group {
	return &Group{
		Summary:   summary,
		Readings:  readings,
		Limits:    limits,
		temp:      columnOf(readings, tempOf),
		humidity:  columnOf(readings, humidityOf),
		co2:       columnOf(readings, co2Of),
		light:     columnOf(readings, lightOf),
		deltas:    column(Deltas(columnOf(readings, energyOf))),
		occupancy: occupancyRatio(readings),
	}
}

type Rule struct {
	Label    string
	Category Category
	Check    func(g *Group) bool
	describe func(roomType string, l catalog.Limits) string
}

// Describe renders the rule with the room type's concrete limits.
func (r Rule) Describe(roomType string, l catalog.Limits) string {
	if r.describe == nil {
		return strings.ToUpper(r.Label[:1]) + r.Label[1:]
	}
	return r.describe(roomType, l)
}

// rules is evaluated in order; flag order follows this table.
var rules = []Rule{
	{
		Label:    FlagTempBelowMin,
		Category: CategoryCompliance,
		Check: func(g *Group) bool {
			lo := g.temp.min()
			return lo.Valid && g.Limits.Temperature.Below(lo.Float64)
		},
		describe: func(rt string, l catalog.Limits) string {
			return fmt.Sprintf("Temperature below %s°C for %s", formatBound(l.Temperature.Min), rt)
		},
	},
	{
		Label:    FlagTempAboveMax,
		Category: CategoryCompliance,
		Check: func(g *Group) bool {
			hi := g.temp.max()
			return hi.Valid && g.Limits.Temperature.Above(hi.Float64)
		},
		describe: func(rt string, l catalog.Limits) string {
			return fmt.Sprintf("Temperature above %s°C for %s", formatBound(l.Temperature.Max), rt)
		},
	},
	{
		Label:    FlagTempFluctuation,
		Category: CategoryComfort,
		Check: func(g *Group) bool {
			lo, hi := g.temp.min(), g.temp.max()
			return lo.Valid && hi.Float64-lo.Float64 > fluctuationLimitC
		},
		describe: func(string, catalog.Limits) string {
			return "Rapid temperature fluctuation (>5°C)"
		},
	},
	{
		Label:    FlagHumidityOutOfRange,
		Category: CategoryCompliance,
		Check: func(g *Group) bool {
			lo, hi := g.humidity.min(), g.humidity.max()
			if !lo.Valid {
				return false
			}
			return g.Limits.Humidity.Below(lo.Float64) || g.Limits.Humidity.Above(hi.Float64)
		},
		describe: func(rt string, l catalog.Limits) string {
			return fmt.Sprintf("Humidity out of range %s-%s%% for %s", formatBound(l.Humidity.Min), formatBound(l.Humidity.Max), rt)
		},
	},
	{
		Label:    FlagHumidityHigh,
		Category: CategoryComfort,
		Check: func(g *Group) bool {
			mean := g.humidity.mean()
			return mean.Valid && mean.Float64 > highHumidityPct
		},
		describe: func(string, catalog.Limits) string {
			return "Consistently high humidity (>65%)"
		},
	},
	{
		Label:    FlagCO2Exceeded,
		Category: CategoryCompliance,
		Check: func(g *Group) bool {
			hi := g.co2.max()
			return g.Limits.CO2Max > 0 && hi.Valid && hi.Float64 > g.Limits.CO2Max
		},
		describe: func(rt string, l catalog.Limits) string {
			return fmt.Sprintf("CO2 exceeded %g ppm limit for %s", l.CO2Max, rt)
		},
	},
	{
		Label:    FlagCO2Unoccupied,
		Category: CategoryVentilation,
		Check: func(g *Group) bool {
			return g.co2.any(func(v float64) bool { return v > unoccupiedCO2PPM }) && allUnoccupied(g.Readings)
		},
		describe: func(string, catalog.Limits) string {
			return "High CO2 despite zero occupancy"
		},
	},
	{
		Label:    FlagLightingWhileOccupied,
		Category: CategoryComfort,
		Check: func(g *Group) bool {
			return g.Limits.Light.Bounded() &&
				g.light.any(g.Limits.Light.Outside) &&
				anyOccupied(g.Readings)
		},
		describe: func(rt string, l catalog.Limits) string {
			return fmt.Sprintf("Lighting outside comfort range (%s-%s lux) while occupied in %s", formatBound(l.Light.Min), formatBound(l.Light.Max), rt)
		},
	},
	{
		Label:    FlagEnergyWaste,
		Category: CategoryEnergy,
		Check: func(g *Group) bool {
			return g.occupancy.Valid && g.occupancy.Float64 < mostlyUnoccupiedRatio && g.Summary.UsedKWh > meaningfulEnergyKWh
		},
	},
	{
		Label:    FlagOccupiedNoEnergy,
		Category: CategoryEnergy,
		Check: func(g *Group) bool {
			return g.occupancy.Valid && g.occupancy.Float64 > 0 && g.Summary.UsedKWh < meaningfulEnergyKWh
		},
	},
	{
		Label:    FlagNoEnergy,
		Category: CategoryAnomaly,
		Check: func(g *Group) bool {
			return g.Summary.UsedKWh == 0
		},
	},
	{
		Label:    FlagDataGap,
		Category: CategoryData,
		Check: func(g *Group) bool {
			return len(g.Readings) < MinReadingsPerDay
		},
		describe: func(string, catalog.Limits) string {
			return fmt.Sprintf("Sensor data gap (fewer than %d of %d expected readings)", MinReadingsPerDay, ExpectedReadingsPerDay)
		},
	},
	{
		Label:    FlagDuplicateTimestamps,
		Category: CategoryData,
		Check: func(g *Group) bool {
			seen := make(map[int64]bool, len(g.Readings))
			for _, r := range g.Readings {
				key := r.Timestamp.UnixNano()
				if seen[key] {
					return true
				}
				seen[key] = true
			}
			return false
		},
	},
	{
		Label:    FlagEnergySpike,
		Category: CategoryAnomaly,
		Check: func(g *Group) bool {
			return g.deltas.any(func(d float64) bool { return d > SpikeDeltaKWh })
		},
		describe: func(string, catalog.Limits) string {
			return fmt.Sprintf("Sudden spike in energy usage (delta > %g kWh)", SpikeDeltaKWh)
		},
	},
}

// Rules returns the rule catalog in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// RuleFor looks up a rule by its flag label.
func RuleFor(label string) (Rule, bool) {
	for _, r := range rules {
		if r.Label == label {
			return r, true
		}
	}
	return Rule{}, false
}

// EvaluateRules runs every rule against one room-day and returns the labels
// of those that fire, in catalog order. readings need not be sorted.
func EvaluateRules(summary *models.DailySummary, readings []models.Reading, limits catalog.Limits) []string {
	g := newGroup(summary, sortedByTime(readings), limits)
	var flags []string
	for _, r := range rules {
		if r.Check(g) {
			flags = append(flags, r.Label)
		}
	}
	return flags
}

// DescribeFlag renders a flag label in the detailed wording used by reports.
func DescribeFlag(label, roomType string, l catalog.Limits) string {
	r, ok := RuleFor(label)
	if !ok {
		return label
	}
	return r.Describe(roomType, l)
}

func formatBound(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
