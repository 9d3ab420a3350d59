package engine

import (
	"testing"

	"github.com/lox/roomaudit/internal/models"
)

func TestEstimateImpact(t *testing.T) {
	readings := comfortableDay("r1", day, 8)
	for i := 2; i <= 5; i++ {
		readings[i].Occupied = occupied(false)
	}
	unoccupied := func(r Row) bool { return r.Occupied.Valid && !r.Occupied.Bool }
	e := New(Options{})

	tests := []struct {
		name     string
		pred     Predicate
		energy   bool
		wantOK   bool
		minutes  int64
		wantKWh  float64
		wantCost float64
	}{
		{
			name:     "contiguous match",
			pred:     unoccupied,
			energy:   true,
			wantOK:   true,
			minutes:  60,
			wantKWh:  0.6,
			wantCost: 0.18,
		},
		{
			name:    "duration only",
			pred:    unoccupied,
			energy:  false,
			wantOK:  true,
			minutes: 60,
		},
		{
			name:     "non-adjacent rows are differenced directly",
			pred:     func(r Row) bool { return r.Timestamp.Equal(readings[0].Timestamp) || r.Timestamp.Equal(readings[2].Timestamp) || r.Timestamp.Equal(readings[4].Timestamp) },
			energy:   true,
			wantOK:   true,
			minutes:  45,
			wantKWh:  0.8,
			wantCost: 0.24,
		},
		{
			name:     "every row",
			pred:     func(Row) bool { return true },
			energy:   true,
			wantOK:   true,
			minutes:  120,
			wantKWh:  1.4,
			wantCost: 0.42,
		},
		{
			name:   "no match",
			pred:   func(Row) bool { return false },
			energy: true,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag, ok := e.EstimateImpact(readings, "test", tt.pred, tt.energy)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if flag.Label != "test" {
				t.Errorf("Label = %q", flag.Label)
			}
			if !flag.DurationMinutes.Valid || flag.DurationMinutes.Int64 != tt.minutes {
				t.Errorf("DurationMinutes = %+v, want %d", flag.DurationMinutes, tt.minutes)
			}
			if flag.EnergyKWh != tt.wantKWh {
				t.Errorf("EnergyKWh = %v, want %v", flag.EnergyKWh, tt.wantKWh)
			}
			if flag.Cost != tt.wantCost {
				t.Errorf("Cost = %v, want %v", flag.Cost, tt.wantCost)
			}
		})
	}
}

func TestEstimateImpactRejectsOutOfWindowDeltas(t *testing.T) {
	readings := comfortableDay("r1", day, 4)
	readings[2].Energy = num(90) // reset
	readings[3].Energy = num(95) // 5 kWh jump

	flag, ok := New(Options{}).EstimateImpact(readings, "all", func(Row) bool { return true }, true)
	if !ok {
		t.Fatal("expected a match")
	}
	if flag.EnergyKWh != 0.2 {
		t.Errorf("EnergyKWh = %v, want 0.2", flag.EnergyKWh)
	}
}

func TestEstimateImpactUsesRoomTypeRate(t *testing.T) {
	readings := comfortableDay("k1", day, 6)
	for i := range readings {
		readings[i].RoomType = "Kitchen"
	}

	flag, _ := New(Options{}).EstimateImpact(readings, "all", func(Row) bool { return true }, true)
	if flag.EnergyKWh != 1 || flag.Cost != 0.42 {
		t.Errorf("impact = %v kWh / %v, want 1 kWh / 0.42", flag.EnergyKWh, flag.Cost)
	}
}

func TestRows(t *testing.T) {
	readings := comfortableDay("r1", day, 3)
	shuffled := []models.Reading{readings[2], readings[0], readings[1]}

	rows := Rows(shuffled)
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 3", len(rows))
	}
	if !rows[0].Timestamp.Equal(readings[0].Timestamp) {
		t.Error("rows are not sorted by time")
	}
	if rows[0].Delta != 0 {
		t.Errorf("first delta = %v, want 0", rows[0].Delta)
	}
	if d := round2(rows[2].Delta); d != 0.2 {
		t.Errorf("last delta = %v, want 0.2", d)
	}
}
