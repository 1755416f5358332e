// Package store is the append-only SQLite log of sensor readings and pump events.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"sort"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/sweeney/grow-monitor/internal/grow"
)

// DefaultPath is where the Pi keeps the plant database.
const DefaultPath = "/home/pi/project/plants.db"

const schema = `
CREATE TABLE IF NOT EXISTS sensors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	temp REAL,
	light REAL,
	moisture_1 REAL,
	moisture_2 REAL,
	moisture_3 REAL
);

CREATE TABLE IF NOT EXISTS pump_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT,
	channel INTEGER,
	rate REAL,
	duration REAL,
	UNIQUE(timestamp, channel, rate, duration)
);
`

// Store appends to the sensors and pump_log tables.
// Rows are never updated or deleted.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures both tables exist.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertReading appends one combined reading.
func (s *Store) InsertReading(r grow.SensorReading) error {
	_, err := s.db.Exec(`
		INSERT INTO sensors (timestamp, temp, light, moisture_1, moisture_2, moisture_3)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Timestamp, nullFloat(r.Temperature), nullFloat(r.Light),
		r.Moisture[0], r.Moisture[1], r.Moisture[2])
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// InsertPumpEvents inserts events oldest first, ignoring any whose full tuple
// is already stored. Returns the events actually added, oldest first.
func (s *Store) InsertPumpEvents(events []grow.PumpEvent) ([]grow.PumpEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	sorted := make([]grow.PumpEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO pump_log (timestamp, channel, rate, duration)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare pump insert: %w", err)
	}
	defer stmt.Close()

	var inserted []grow.PumpEvent
	for _, e := range sorted {
		res, err := stmt.Exec(e.Timestamp, e.Channel, e.Rate, e.Duration)
		if err != nil {
			log.Printf("store: insert pump event %+v: %v", e, err)
			continue
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted = append(inserted, e)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit pump events: %w", err)
	}
	return inserted, nil
}

// Readings returns all stored readings in insertion order.
func (s *Store) Readings() ([]grow.SensorReading, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, temp, light, moisture_1, moisture_2, moisture_3
		FROM sensors ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []grow.SensorReading
	for rows.Next() {
		var (
			r           grow.SensorReading
			temp, light sql.NullFloat64
		)
		if err := rows.Scan(&r.Timestamp, &temp, &light, &r.Moisture[0], &r.Moisture[1], &r.Moisture[2]); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		if temp.Valid {
			r.Temperature = grow.Float(temp.Float64)
		}
		if light.Valid {
			r.Light = grow.Float(light.Float64)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PumpEvents returns all stored pump events in insertion order.
func (s *Store) PumpEvents() ([]grow.PumpEvent, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, channel, rate, duration
		FROM pump_log ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pump events: %w", err)
	}
	defer rows.Close()

	var out []grow.PumpEvent
	for rows.Next() {
		var e grow.PumpEvent
		if err := rows.Scan(&e.Timestamp, &e.Channel, &e.Rate, &e.Duration); err != nil {
			return nil, fmt.Errorf("scan pump event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
