// Package catalog holds the static per-room-type configuration: volumetric
// energy baselines, comfort and safety limits, and cost rates.
package catalog

import "sort"

const DefaultRoomType = "Bedroom"

// DefaultRate is the per-kWh rate used when no per-room-type rate applies.
const DefaultRate = 0.30

// Range is an optional lower and upper bound. A nil bound is unbounded.
type Range struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

func (r Range) Below(v float64) bool {
	return r.Min != nil && v < *r.Min
}

func (r Range) Above(v float64) bool {
	return r.Max != nil && v > *r.Max
}

func (r Range) Outside(v float64) bool {
	return r.Below(v) || r.Above(v)
}

// Bounded reports whether both ends are set.
func (r Range) Bounded() bool {
	return r.Min != nil && r.Max != nil
}

type Limits struct {
	Temperature Range   `yaml:"temperature"`
	Humidity    Range   `yaml:"humidity"`
	CO2Max      float64 `yaml:"co2_max"`
	Light       Range   `yaml:"light"`
}

type Entry struct {
	BaselineKWhPerM3 float64 `yaml:"baseline_kwh_per_m3"`
	Rate             float64 `yaml:"rate_per_kwh"`
	Limits           Limits  `yaml:"limits"`
}

// Catalog maps room types to their entry. It is immutable once built; use
// With to derive a modified copy.
type Catalog struct {
	entries     map[string]Entry
	defaultType string
}

func New(entries map[string]Entry, defaultType string) *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(entries)), defaultType: defaultType}
	for k, v := range entries {
		c.entries[k] = v
	}
	return c
}

func bound(v float64) *float64 {
	return &v
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(map[string]Entry{
		"Bedroom": {
			BaselineKWhPerM3: 0.21,
			Rate:             0.30,
			Limits: Limits{
				Temperature: Range{Min: bound(22), Max: bound(26)},
				Humidity:    Range{Min: bound(30), Max: bound(60)},
				CO2Max:      1000,
				Light:       Range{Min: bound(100), Max: bound(300)},
			},
		},
		"Living": {
			BaselineKWhPerM3: 0.28,
			Rate:             0.34,
			Limits: Limits{
				Temperature: Range{Min: bound(23), Max: bound(27)},
				Humidity:    Range{Min: bound(30), Max: bound(60)},
				CO2Max:      1000,
				Light:       Range{Min: bound(150), Max: bound(500)},
			},
		},
		"Kitchen": {
			BaselineKWhPerM3: 0.50,
			Rate:             0.42,
			Limits: Limits{
				Temperature: Range{Max: bound(32)},
				Humidity:    Range{Min: bound(30), Max: bound(70)},
				CO2Max:      1200,
			},
		},
		"Bathroom": {
			BaselineKWhPerM3: 0.17,
			Rate:             0.26,
			Limits: Limits{
				Temperature: Range{Min: bound(22), Max: bound(26)},
				Humidity:    Range{Min: bound(40), Max: bound(70)},
				CO2Max:      1200,
				Light:       Range{Min: bound(50), Max: bound(200)},
			},
		},
		"Office": {
			BaselineKWhPerM3: 0.50,
			Rate:             0.38,
			Limits: Limits{
				Temperature: Range{Min: bound(22), Max: bound(25)},
				Humidity:    Range{Min: bound(30), Max: bound(60)},
				CO2Max:      800,
				Light:       Range{Min: bound(300), Max: bound(750)},
			},
		},
	}, DefaultRoomType)
}

// Lookup returns the entry for roomType and whether it was recognized.
// Unrecognized types get the default entry.
func (c *Catalog) Lookup(roomType string) (Entry, bool) {
	if e, ok := c.entries[roomType]; ok {
		return e, true
	}
	return c.entries[c.defaultType], false
}

func (c *Catalog) Limits(roomType string) Limits {
	e, _ := c.Lookup(roomType)
	return e.Limits
}

func (c *Catalog) Baseline(roomType string) float64 {
	e, _ := c.Lookup(roomType)
	return e.BaselineKWhPerM3
}

func (c *Catalog) DefaultType() string {
	return c.defaultType
}

func (c *Catalog) RoomTypes() []string {
	types := make([]string, 0, len(c.entries))
	for k := range c.entries {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// With returns a copy of the catalog with roomType set to e.
func (c *Catalog) With(roomType string, e Entry) *Catalog {
	next := New(c.entries, c.defaultType)
	next.entries[roomType] = e
	return next
}
