package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Store reads room metadata and sensor readings from a SQLite database whose
// schema is owned by the collector that writes it. Nothing here writes.
//
//	rooms(room, room_type, width, length, height)
//	readings(room, room_type, timestamp, temperature, humidity, energy, light, pressure, co2, occupancy)
//
// Columns are read as text so loosely typed values survive to coercion.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}
}

// Open opens path read-only and checks it is reachable.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := retryBusy(ctx, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (s *Store) Location() *time.Location {
	return s.loc
}

type RoomRow struct {
	Room     sql.NullString
	RoomType sql.NullString
	Width    sql.NullString
	Length   sql.NullString
	Height   sql.NullString
}

type ReadingRow struct {
	Room        sql.NullString
	RoomType    sql.NullString
	Timestamp   sql.NullString
	Temperature sql.NullString
	Humidity    sql.NullString
	Energy      sql.NullString
	Light       sql.NullString
	Pressure    sql.NullString
	CO2         sql.NullString
	Occupancy   sql.NullString
}

func (s *Store) GetRooms(ctx context.Context) ([]RoomRow, error) {
	var rooms []RoomRow
	err := retryBusy(ctx, func() error {
		rooms = nil
		rows, err := s.db.QueryContext(ctx, `SELECT room, room_type, width, length, height FROM rooms ORDER BY rowid`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r RoomRow
			if err := rows.Scan(&r.Room, &r.RoomType, &r.Width, &r.Length, &r.Height); err != nil {
				return err
			}
			rooms = append(rooms, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get rooms: %w", err)
	}
	return rooms, nil
}

// GetReadings returns the readings for room, or for every room when room is
// empty, ordered by room then timestamp.
func (s *Store) GetReadings(ctx context.Context, room string) ([]ReadingRow, error) {
	query := `SELECT room, room_type, timestamp, temperature, humidity, energy, light, pressure, co2, occupancy FROM readings`
	var args []any
	if room != "" {
		query += ` WHERE room = ?`
		args = append(args, room)
	}
	query += ` ORDER BY room, timestamp`

	var readings []ReadingRow
	err := retryBusy(ctx, func() error {
		readings = nil
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r ReadingRow
			if err := rows.Scan(&r.Room, &r.RoomType, &r.Timestamp, &r.Temperature, &r.Humidity, &r.Energy, &r.Light, &r.Pressure, &r.CO2, &r.Occupancy); err != nil {
				return err
			}
			readings = append(readings, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get readings: %w", err)
	}
	return readings, nil
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryBusy retries op while the database reports it is locked by a writer.
func retryBusy(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
