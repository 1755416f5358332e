//go:build linux

package moisture

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device of the Pi header.
const DefaultChip = "gpiochip0"

// PulseSensor counts rising edges from a Grow HAT moisture sensor.
// The sensor's output frequency drops as the soil gets wetter.
type PulseSensor struct {
	pin   int
	line  *gpiocdev.Line
	count atomic.Int64
	since time.Time
	now   func() time.Time
}

// OpenPulseSensors requests one line per pin on chip. If any request fails,
// the lines already requested are released before returning.
func OpenPulseSensors(chip string, pins []int) ([]Sensor, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	// Requested lines stay valid after the chip is closed.
	defer c.Close()

	sensors := make([]Sensor, 0, len(pins))
	for _, pin := range pins {
		ps := &PulseSensor{pin: pin, now: time.Now}
		line, err := c.RequestLine(pin,
			gpiocdev.AsInput,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithEventHandler(ps.handleEvent))
		if err != nil {
			CloseAll(sensors)
			return nil, fmt.Errorf("request moisture pin %d: %w", pin, err)
		}
		ps.line = line
		ps.since = ps.now()
		sensors = append(sensors, ps)
	}
	return sensors, nil
}

func (s *PulseSensor) handleEvent(gpiocdev.LineEvent) {
	s.count.Add(1)
}

// Read returns pulses per second since the previous Read (or since the
// line was requested) and starts a new counting window.
func (s *PulseSensor) Read() (float64, error) {
	now := s.now()
	elapsed := now.Sub(s.since)
	if elapsed <= 0 {
		return 0, errors.New("no time elapsed since last read")
	}
	n := s.count.Swap(0)
	s.since = now
	if n == 0 {
		return 0, fmt.Errorf("pin %d: no pulses in %v", s.pin, elapsed.Round(time.Millisecond))
	}
	return float64(n) / elapsed.Seconds(), nil
}

// Close releases the GPIO line.
// Reconfigures the pin to a plain input (matching Pi boot defaults) first.
func (s *PulseSensor) Close() error {
	if s.line == nil {
		return nil
	}
	var errs []error
	if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithoutEdges); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", s.pin, err))
	}
	if err := s.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", s.pin, err))
	}
	s.line = nil
	return errors.Join(errs...)
}
