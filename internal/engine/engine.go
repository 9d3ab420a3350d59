// Package engine turns room sensor readings into daily compliance summaries.
//
// It cleans cumulative energy counters into per-interval consumption, computes
// per-room-per-day metrics, evaluates a fixed ordered catalog of rules and
// estimates the duration, energy and cost impact of row-level conditions. The
// engine does no I/O: callers hand it already-loaded readings and rooms.
package engine

import (
	"errors"
	"math"
	"runtime"
	"time"

	"github.com/lox/roomaudit/internal/catalog"
)

var ErrMissingDimensions = errors.New("missing room dimensions")

type Options struct {
	Catalog *catalog.Catalog
	// Pricer prices daily summaries. Defaults to catalog.FixedRate(catalog.DefaultRate).
	Pricer catalog.Pricer
	// ImpactPricer prices impact estimates. Defaults to the catalog's per-room-type rates.
	ImpactPricer catalog.Pricer
	// GoalOverride replaces the volumetric goal for every room when set.
	GoalOverride *float64
	// Location decides which calendar day a reading belongs to. Defaults to UTC.
	Location *time.Location
	// Workers bounds concurrent group evaluation in Aggregate. Defaults to GOMAXPROCS.
	Workers int
}

type Engine struct {
	catalog      *catalog.Catalog
	pricer       catalog.Pricer
	impactPricer catalog.Pricer
	goalOverride *float64
	loc          *time.Location
	workers      int
}

func New(opts Options) *Engine {
	e := &Engine{
		catalog:      opts.Catalog,
		pricer:       opts.Pricer,
		impactPricer: opts.ImpactPricer,
		loc:          opts.Location,
		workers:      opts.Workers,
	}
	if e.catalog == nil {
		e.catalog = catalog.Default()
	}
	if e.pricer == nil {
		e.pricer = catalog.FixedRate(catalog.DefaultRate)
	}
	if e.impactPricer == nil {
		e.impactPricer = catalog.RoomTypeRates{Catalog: e.catalog}
	}
	if opts.GoalOverride != nil {
		goal := *opts.GoalOverride
		e.goalOverride = &goal
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// DateOf returns the group date of t in the engine's location.
func (e *Engine) DateOf(t time.Time) string {
	return t.In(e.loc).Format("2006-01-02")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func round2(v float64) float64 {
	return round(v, 2)
}
