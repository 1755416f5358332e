package moisture

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// DefaultSettle is the pause between the discarded first read and the
// read that is used. The pulse counters need time to accumulate.
const DefaultSettle = 2 * time.Second

// ErrIncomplete is matched by errors from Sample when a channel produced no reading.
var ErrIncomplete = errors.New("incomplete moisture reading")

// IncompleteError lists the channels (1-based) that failed to read.
type IncompleteError struct {
	Channels []int
	Errs     []error
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("moisture channels %v failed: %v", e.Channels, errors.Join(e.Errs...))
}

// Is reports ErrIncomplete.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// Sampler reads a set of channels and converts them to percentages.
type Sampler struct {
	Sensors      []Sensor
	Calibrations []Calibration

	// Settle is the wait between the discarded and the used read.
	Settle time.Duration

	// Sleep defaults to time.Sleep. Tests replace it.
	Sleep func(time.Duration)
}

// NewSampler creates a Sampler with the default settle interval.
func NewSampler(sensors []Sensor, cals []Calibration) *Sampler {
	return &Sampler{
		Sensors:      sensors,
		Calibrations: cals,
		Settle:       DefaultSettle,
	}
}

// Sample returns one percentage per channel. The first read of every channel
// is thrown away, then after Settle each channel is read again.
// If any channel fails the second read, no percentages are returned and the
// error matches ErrIncomplete.
func (s *Sampler) Sample() ([]float64, error) {
	if len(s.Calibrations) != len(s.Sensors) {
		return nil, fmt.Errorf("%d sensors but %d calibrations", len(s.Sensors), len(s.Calibrations))
	}

	for _, sensor := range s.Sensors {
		_, _ = sensor.Read() // discarded
	}

	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(s.Settle)

	raw := make([]float64, len(s.Sensors))
	var incomplete IncompleteError
	for i, sensor := range s.Sensors {
		v, err := sensor.Read()
		if err != nil {
			log.Printf("moisture: channel %d read error: %v", i+1, err)
			incomplete.Channels = append(incomplete.Channels, i+1)
			incomplete.Errs = append(incomplete.Errs, err)
			continue
		}
		raw[i] = v
	}
	if len(incomplete.Channels) > 0 {
		return nil, &incomplete
	}

	pct := make([]float64, len(raw))
	for i, v := range raw {
		pct[i] = s.Calibrations[i].Percentage(v)
	}
	return pct, nil
}

// CloseAll closes every sensor and joins their errors.
func CloseAll(sensors []Sensor) error {
	var errs []error
	for i, s := range sensors {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}
