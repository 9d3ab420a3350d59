package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lox/roomaudit/internal/audit"
	"github.com/lox/roomaudit/internal/engine"
	"github.com/lox/roomaudit/internal/metrics"
	"github.com/lox/roomaudit/internal/models"
)

// DailyJobs runs batch jobs over a source: daily summaries and audits.
type DailyJobs struct {
	source Source
	engine *engine.Engine
}

func NewDailyJobs(source Source, e *engine.Engine) *DailyJobs {
	return &DailyJobs{source: source, engine: e}
}

type Run struct {
	Dataset *Dataset
	Result  *engine.Result
}

func (d *DailyJobs) load(ctx context.Context) (*Dataset, error) {
	ds, err := d.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	metrics.ReadingsLoaded.Add(float64(len(ds.Readings)))
	metrics.ReadingsRejected.Add(float64(len(ds.Diagnostics)))
	for flag, n := range ds.QualityFlags {
		metrics.QualityFlags.WithLabelValues(flag).Add(float64(n))
	}
	return ds, nil
}

// ComputeDailySummaries loads the source and summarizes every room-day in it.
func (d *DailyJobs) ComputeDailySummaries(ctx context.Context) (*Run, error) {
	ds, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := d.engine.Aggregate(ctx, ds.Readings, ds.Rooms)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	metrics.AggregateDuration.Observe(time.Since(start).Seconds())
	recordResult(res)

	log.Printf("daily: computed %d summaries, skipped %d room-days", len(res.Summaries), len(res.Diagnostics))
	return &Run{Dataset: ds, Result: res}, nil
}

func recordResult(res *engine.Result) {
	for _, s := range res.Summaries {
		metrics.GroupsSummarized.WithLabelValues(s.RoomType).Inc()
		metrics.DroppedReadings.Add(float64(s.DroppedReadings))
		for _, flag := range s.Flags {
			metrics.FlagsRaised.WithLabelValues(flag).Inc()
		}
	}
	for _, diag := range res.Diagnostics {
		reason := "other"
		if errors.Is(diag, engine.ErrMissingDimensions) {
			reason = "missing_dimensions"
		}
		metrics.GroupsSkipped.WithLabelValues(reason).Inc()
	}
	metrics.UnrecognizedRoomTypes.Add(float64(res.Unrecognized))
	metrics.LastRunTimestamp.SetToCurrentTime()
}

// Audit loads the source and audits it, keeping room-days matching room and
// date. Empty filters match everything.
func (d *DailyJobs) Audit(ctx context.Context, room, date string) ([]models.RoomDayAudit, error) {
	ds, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	audits := audit.Filter(audit.New(d.engine).Run(ds.Readings, ds.Rooms), room, date)
	log.Printf("daily: audited %d room-days", len(audits))
	return audits, nil
}

func (d *DailyJobs) Engine() *engine.Engine {
	return d.engine
}
