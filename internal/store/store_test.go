package store

import (
	"path/filepath"
	"testing"

	"github.com/sweeney/grow-monitor/internal/grow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s1.InsertReading(grow.SensorReading{Timestamp: "2025-11-04 12:00:00"}); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	readings, err := s2.Readings()
	if err != nil {
		t.Fatalf("Readings: %v", err)
	}
	if len(readings) != 1 {
		t.Errorf("expected existing row to survive reopen, got %d rows", len(readings))
	}
}

func TestInsertReading(t *testing.T) {
	s := openTestStore(t)

	r := grow.SensorReading{
		Timestamp:   "2025-11-04 12:00:00",
		Temperature: grow.Float(21.5),
		Light:       grow.Float(0.4),
		Moisture:    [3]float64{50, 62.5, 100},
	}
	if err := s.InsertReading(r); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	got, err := s.Readings()
	if err != nil {
		t.Fatalf("Readings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(got))
	}
	if got[0].Timestamp != r.Timestamp {
		t.Errorf("Timestamp: got %q, want %q", got[0].Timestamp, r.Timestamp)
	}
	if got[0].Temperature == nil || *got[0].Temperature != 21.5 {
		t.Errorf("Temperature: got %v, want 21.5", got[0].Temperature)
	}
	if got[0].Light == nil || *got[0].Light != 0.4 {
		t.Errorf("Light: got %v, want 0.4", got[0].Light)
	}
	if got[0].Moisture != r.Moisture {
		t.Errorf("Moisture: got %v, want %v", got[0].Moisture, r.Moisture)
	}
}

func TestInsertReadingMissingArduinoValues(t *testing.T) {
	s := openTestStore(t)

	if err := s.InsertReading(grow.SensorReading{Timestamp: "2025-11-04 12:00:00", Moisture: [3]float64{1, 2, 3}}); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	got, err := s.Readings()
	if err != nil {
		t.Fatalf("Readings: %v", err)
	}
	if got[0].Temperature != nil {
		t.Errorf("Temperature: expected NULL, got %v", *got[0].Temperature)
	}
	if got[0].Light != nil {
		t.Errorf("Light: expected NULL, got %v", *got[0].Light)
	}
}

func TestInsertPumpEventTwiceStoresOnce(t *testing.T) {
	s := openTestStore(t)
	e := grow.PumpEvent{Timestamp: "2025-11-04 12:00:57", Channel: 1, Rate: 0.6, Duration: 1}

	added, err := s.InsertPumpEvents([]grow.PumpEvent{e})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if len(added) != 1 {
		t.Errorf("first insert: got %d new rows, want 1", len(added))
	}

	added, err = s.InsertPumpEvents([]grow.PumpEvent{e})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("second insert: got %d new rows, want 0", len(added))
	}

	events, err := s.PumpEvents()
	if err != nil {
		t.Fatalf("PumpEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected exactly 1 row, got %d", len(events))
	}
}

func TestInsertPumpEventsSortedAndDeduped(t *testing.T) {
	s := openTestStore(t)

	events := []grow.PumpEvent{
		{Timestamp: "2025-11-04 12:05:00", Channel: 2, Rate: 0.5, Duration: 2},
		{Timestamp: "2025-11-04 12:00:57", Channel: 1, Rate: 0.6, Duration: 1},
		{Timestamp: "2025-11-04 12:05:00", Channel: 2, Rate: 0.5, Duration: 2},
		{Timestamp: "2025-11-03 23:59:59", Channel: 3, Rate: 0.6, Duration: 1},
	}

	added, err := s.InsertPumpEvents(events)
	if err != nil {
		t.Fatalf("InsertPumpEvents: %v", err)
	}
	if len(added) != 3 {
		t.Errorf("got %d new rows, want 3", len(added))
	}
	if len(added) == 3 && added[0].Timestamp != "2025-11-03 23:59:59" {
		t.Errorf("added events not oldest first: %v", added)
	}

	got, err := s.PumpEvents()
	if err != nil {
		t.Fatalf("PumpEvents: %v", err)
	}
	want := []string{"2025-11-03 23:59:59", "2025-11-04 12:00:57", "2025-11-04 12:05:00"}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Timestamp != want[i] {
			t.Errorf("row %d: got %s, want %s", i, got[i].Timestamp, want[i])
		}
	}

	// Input slice is left untouched.
	if events[0].Timestamp != "2025-11-04 12:05:00" {
		t.Error("InsertPumpEvents reordered the caller's slice")
	}
}

func TestInsertPumpEventsSameTimestampDifferentChannel(t *testing.T) {
	s := openTestStore(t)

	added, err := s.InsertPumpEvents([]grow.PumpEvent{
		{Timestamp: "2025-11-04 12:00:57", Channel: 1, Rate: 0.6, Duration: 1},
		{Timestamp: "2025-11-04 12:00:57", Channel: 2, Rate: 0.6, Duration: 1},
	})
	if err != nil {
		t.Fatalf("InsertPumpEvents: %v", err)
	}
	if len(added) != 2 {
		t.Errorf("got %d new rows, want 2", len(added))
	}
}

func TestInsertPumpEventsEmpty(t *testing.T) {
	s := openTestStore(t)
	added, err := s.InsertPumpEvents(nil)
	if err != nil || len(added) != 0 {
		t.Errorf("got (%v, %v), want (nil, nil)", added, err)
	}
}
