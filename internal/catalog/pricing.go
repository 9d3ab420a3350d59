package catalog

// Pricer returns the cost per kWh for a room type.
type Pricer interface {
	RateFor(roomType string) float64
}

// FixedRate charges the same rate for every room type.
type FixedRate float64

func (f FixedRate) RateFor(string) float64 {
	return float64(f)
}

// RoomTypeRates charges the catalog's per-room-type rate, falling back to the
// default entry's rate and then to DefaultRate.
type RoomTypeRates struct {
	Catalog *Catalog
}

func (r RoomTypeRates) RateFor(roomType string) float64 {
	e, ok := r.Catalog.Lookup(roomType)
	if !ok || e.Rate <= 0 {
		return DefaultRate
	}
	return e.Rate
}
