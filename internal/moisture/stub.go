//go:build !linux

package moisture

import "errors"

// DefaultChip is the GPIO character device of the Pi header.
const DefaultChip = "gpiochip0"

// OpenPulseSensors returns an error on non-Linux platforms.
func OpenPulseSensors(chip string, pins []int) ([]Sensor, error) {
	return nil, errors.New("moisture: gpio not supported on this platform (requires Linux)")
}
