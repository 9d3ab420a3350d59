package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookup_FallsBackToBedroom(t *testing.T) {
	c := Default()

	e, ok := c.Lookup("Garage")
	if ok {
		t.Fatal("Lookup(Garage) reported recognized")
	}
	bedroom, _ := c.Lookup("Bedroom")
	if e.BaselineKWhPerM3 != bedroom.BaselineKWhPerM3 {
		t.Errorf("baseline = %v, want bedroom %v", e.BaselineKWhPerM3, bedroom.BaselineKWhPerM3)
	}
	if e.Limits.CO2Max != 1000 {
		t.Errorf("CO2Max = %v, want 1000", e.Limits.CO2Max)
	}
}

func TestDefault_KitchenBounds(t *testing.T) {
	lim := Default().Limits("Kitchen")

	if lim.Temperature.Min != nil {
		t.Errorf("kitchen temperature min should be unbounded, got %v", *lim.Temperature.Min)
	}
	if lim.Temperature.Max == nil || *lim.Temperature.Max != 32 {
		t.Errorf("kitchen temperature max = %v, want 32", lim.Temperature.Max)
	}
	if lim.Light.Bounded() {
		t.Error("kitchen light range should not be bounded")
	}
}

func TestRange(t *testing.T) {
	r := Range{Min: bound(10), Max: bound(20)}
	tests := []struct {
		v       float64
		below   bool
		above   bool
		outside bool
	}{
		{5, true, false, true},
		{10, false, false, false},
		{20, false, false, false},
		{21, false, true, true},
	}
	for _, tt := range tests {
		if got := r.Below(tt.v); got != tt.below {
			t.Errorf("Below(%v) = %v, want %v", tt.v, got, tt.below)
		}
		if got := r.Above(tt.v); got != tt.above {
			t.Errorf("Above(%v) = %v, want %v", tt.v, got, tt.above)
		}
		if got := r.Outside(tt.v); got != tt.outside {
			t.Errorf("Outside(%v) = %v, want %v", tt.v, got, tt.outside)
		}
	}

	if (Range{}).Outside(1e9) {
		t.Error("unbounded range reported value outside")
	}
}

func TestPricers(t *testing.T) {
	c := Default()
	rates := RoomTypeRates{Catalog: c}

	tests := []struct {
		roomType string
		want     float64
	}{
		{"Bedroom", 0.30},
		{"Living", 0.34},
		{"Kitchen", 0.42},
		{"Bathroom", 0.26},
		{"Office", 0.38},
		{"Garage", DefaultRate},
	}
	for _, tt := range tests {
		if got := rates.RateFor(tt.roomType); got != tt.want {
			t.Errorf("RateFor(%q) = %v, want %v", tt.roomType, got, tt.want)
		}
	}

	if got := FixedRate(0.5).RateFor("Kitchen"); got != 0.5 {
		t.Errorf("FixedRate = %v, want 0.5", got)
	}
}

func TestWith_DoesNotMutateOriginal(t *testing.T) {
	c := Default()
	next := c.With("Office", Entry{BaselineKWhPerM3: 1})

	if got := c.Baseline("Office"); got != 0.50 {
		t.Errorf("unmodified Office baseline = %v, want 0.50", got)
	}
	if got := next.Baseline("Office"); got != 1 {
		t.Errorf("derived Office baseline = %v, want 1", got)
	}
}

func TestLoad_MergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := `
room_types:
  Office:
    baseline_kwh_per_m3: 0.45
    limits:
      co2_max: 900
      temperature:
        max: 24
  Garage:
    baseline_kwh_per_m3: 0.05
    rate_per_kwh: 0.2
    limits:
      humidity: {min: 10, max: 90}
      co2_max: 2000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	office, ok := c.Lookup("Office")
	if !ok {
		t.Fatal("Office missing")
	}
	if office.BaselineKWhPerM3 != 0.45 {
		t.Errorf("Office baseline = %v, want 0.45", office.BaselineKWhPerM3)
	}
	if office.Rate != 0.38 {
		t.Errorf("Office rate = %v, want built-in 0.38", office.Rate)
	}
	if office.Limits.CO2Max != 900 {
		t.Errorf("Office CO2Max = %v, want 900", office.Limits.CO2Max)
	}
	if *office.Limits.Temperature.Min != 22 || *office.Limits.Temperature.Max != 24 {
		t.Errorf("Office temperature = %v-%v, want 22-24", *office.Limits.Temperature.Min, *office.Limits.Temperature.Max)
	}

	garage, ok := c.Lookup("Garage")
	if !ok {
		t.Fatal("Garage not added")
	}
	if garage.Limits.CO2Max != 2000 || garage.Limits.Temperature.Min != nil {
		t.Errorf("Garage limits = %+v", garage.Limits)
	}
	if c.DefaultType() != "Bedroom" {
		t.Errorf("DefaultType = %q, want Bedroom", c.DefaultType())
	}
}

func TestParse_UnknownDefaultType(t *testing.T) {
	_, err := Parse([]byte("default_type: Attic\n"))
	if err == nil {
		t.Fatal("expected error for default type without entry")
	}
}
