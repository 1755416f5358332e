// Package moisture samples the Grow HAT soil moisture channels.
// The real implementation counts sensor pulses on Linux GPIO lines.
// The fake implementation allows testing without hardware.
package moisture

import (
	"fmt"
	"strconv"
	"strings"
)

// Sensor reads one moisture channel.
type Sensor interface {
	// Read returns the raw channel reading (pulses per second for the
	// Grow HAT sensors). Lower values mean wetter soil.
	Read() (float64, error)

	// Close releases the channel's resources.
	Close() error
}

// Pin definitions (BCM numbering) for Grow HAT channels 1..3.
var DefaultPins = []int{23, 8, 25}

// Default calibration endpoints for the Grow HAT sensors.
const (
	DefaultDry = 27.0
	DefaultWet = 3.0
)

// Calibration holds a channel's raw readings for fully dry and fully wet soil.
type Calibration struct {
	Dry float64
	Wet float64
}

// DefaultCalibrations returns n copies of the default calibration.
func DefaultCalibrations(n int) []Calibration {
	out := make([]Calibration, n)
	for i := range out {
		out[i] = Calibration{Dry: DefaultDry, Wet: DefaultWet}
	}
	return out
}

// Percentage converts a raw reading using this calibration.
func (c Calibration) Percentage(reading float64) float64 {
	return Percentage(reading, c.Dry, c.Wet)
}

// Saturation is the reading normalised to [0, 1].
func (c Calibration) Saturation(reading float64) float64 {
	return c.Percentage(reading) / 100
}

// Percentage maps reading linearly from dry (0%) to wet (100%), clamped to
// [0, 100]. A degenerate calibration (dry <= wet) always yields 0.
func Percentage(reading, dry, wet float64) float64 {
	if dry <= wet {
		return 0
	}
	pct := (dry - reading) / (dry - wet) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ParseCalibrations builds per-channel calibrations from comma-separated
// dry and wet point lists, e.g. "27,27,27" and "3,3,3".
func ParseCalibrations(dry, wet string) ([]Calibration, error) {
	dryPoints, err := parseFloats(dry)
	if err != nil {
		return nil, fmt.Errorf("dry points: %w", err)
	}
	wetPoints, err := parseFloats(wet)
	if err != nil {
		return nil, fmt.Errorf("wet points: %w", err)
	}
	if len(dryPoints) != len(wetPoints) {
		return nil, fmt.Errorf("got %d dry points and %d wet points", len(dryPoints), len(wetPoints))
	}

	cals := make([]Calibration, len(dryPoints))
	for i := range cals {
		cals[i] = Calibration{Dry: dryPoints[i], Wet: wetPoints[i]}
	}
	return cals, nil
}

// ParsePins parses a comma-separated list of BCM pin numbers.
func ParsePins(s string) ([]int, error) {
	var pins []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", field, err)
		}
		pins = append(pins, n)
	}
	if len(pins) == 0 {
		return nil, fmt.Errorf("no pins in %q", s)
	}
	return pins, nil
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", field, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list %q", s)
	}
	return out, nil
}
