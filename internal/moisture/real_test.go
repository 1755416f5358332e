//go:build linux

package moisture

import (
	"strings"
	"testing"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// stepClock returns the scripted times in order.
type stepClock struct {
	times []time.Time
}

func (c *stepClock) now() time.Time {
	t := c.times[0]
	c.times = c.times[1:]
	return t
}

func newTestPulseSensor(start time.Time, reads ...time.Time) *PulseSensor {
	clock := &stepClock{times: reads}
	return &PulseSensor{pin: 23, since: start, now: clock.now}
}

func pulse(s *PulseSensor, n int) {
	for i := 0; i < n; i++ {
		s.handleEvent(gpiocdev.LineEvent{})
	}
}

func TestPulseSensorRate(t *testing.T) {
	start := time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC)
	s := newTestPulseSensor(start, start.Add(2*time.Second))
	pulse(s, 50)

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 25 {
		t.Errorf("got %v pulses/s, want 25", got)
	}
}

func TestPulseSensorReadResetsWindow(t *testing.T) {
	start := time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC)
	s := newTestPulseSensor(start, start.Add(time.Second), start.Add(3*time.Second))

	pulse(s, 100)
	if _, err := s.Read(); err != nil {
		t.Fatalf("first Read: %v", err)
	}

	pulse(s, 30)
	got, err := s.Read()
	if err != nil {
		t.Fatalf("second Read: %v", err)
	}
	if got != 15 {
		t.Errorf("second window: got %v pulses/s, want 15", got)
	}
}

func TestPulseSensorNoPulses(t *testing.T) {
	start := time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC)
	s := newTestPulseSensor(start, start.Add(2*time.Second), start.Add(3*time.Second))

	_, err := s.Read()
	if err == nil || !strings.Contains(err.Error(), "no pulses") {
		t.Fatalf("expected no-pulses error, got %v", err)
	}

	// The failed read still starts a new window.
	pulse(s, 8)
	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 8 {
		t.Errorf("got %v pulses/s, want 8", got)
	}
}

func TestPulseSensorNoTimeElapsed(t *testing.T) {
	start := time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC)
	s := newTestPulseSensor(start, start)
	pulse(s, 5)

	if _, err := s.Read(); err == nil {
		t.Error("expected error when no time has elapsed")
	}
}

func TestPulseSensorCloseWithoutLine(t *testing.T) {
	s := &PulseSensor{pin: 23}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
