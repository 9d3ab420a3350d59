package engine

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lox/roomaudit/internal/models"
)

type Result struct {
	Summaries   []models.DailySummary
	Diagnostics []models.Diagnostic
	// Unrecognized counts summaries whose room type fell back to the default entry.
	Unrecognized int
}

// GroupKey identifies one room-day.
type GroupKey struct {
	RoomID string
	Date   string
}

// GroupReadings partitions readings by room and calendar date. Keys are
// sorted by room then date.
func (e *Engine) GroupReadings(readings []models.Reading) ([]GroupKey, map[GroupKey][]models.Reading) {
	groups := make(map[GroupKey][]models.Reading)
	for _, r := range readings {
		key := GroupKey{RoomID: r.RoomID, Date: e.DateOf(r.Timestamp)}
		groups[key] = append(groups[key], r)
	}

	keys := make([]GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RoomID != keys[j].RoomID {
			return keys[i].RoomID < keys[j].RoomID
		}
		return keys[i].Date < keys[j].Date
	})
	return keys, groups
}

// IndexRooms maps rooms by id. The first record for an id wins.
func IndexRooms(rooms []models.Room) map[string]*models.Room {
	index := make(map[string]*models.Room, len(rooms))
	for i := range rooms {
		if _, ok := index[rooms[i].RoomID]; ok {
			log.Printf("aggregate: duplicate dimensions for room %s, keeping first", rooms[i].RoomID)
			continue
		}
		index[rooms[i].RoomID] = &rooms[i]
	}
	return index
}

// Aggregate summarizes every room-day in readings. Groups are evaluated
// concurrently; each group is handled by exactly one worker and the output is
// ordered by room then date regardless of scheduling. Groups whose room has no
// dimensions are skipped and reported as diagnostics. The only error returned
// is ctx's.
func (e *Engine) Aggregate(ctx context.Context, readings []models.Reading, rooms []models.Room) (*Result, error) {
	keys, groups := e.GroupReadings(readings)
	index := IndexRooms(rooms)

	summaries := make([]*models.DailySummary, len(keys))
	failures := make([]error, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, key := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, err := e.summarize(key.Date, groups[key], index[key.RoomID])
			if err != nil {
				failures[i] = err
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Summaries: make([]models.DailySummary, 0, len(keys))}
	for i, key := range keys {
		if err := failures[i]; err != nil {
			log.Printf("aggregate: skipping room %s on %s: %v", key.RoomID, key.Date, err)
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{RoomID: key.RoomID, Date: key.Date, Err: err})
			continue
		}
		if _, ok := e.catalog.Lookup(summaries[i].RoomType); !ok {
			result.Unrecognized++
		}
		result.Summaries = append(result.Summaries, *summaries[i])
	}
	return result, nil
}
