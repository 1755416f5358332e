// Package serial reads sensor frames from the Arduino's serial line.
// Frames are single lines of the form ~{"sensorName":"UV","value":"1.2","unit":"idx"}|~
// interleaved with free-form debug output.
package serial

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FramePrefix marks a line as a sensor frame.
const FramePrefix = "~{"

// frameMarkers are stripped from both ends of a frame before decoding.
const frameMarkers = "~|"

// ErrNotFrame is returned by ParseFrame for lines without the frame prefix.
var ErrNotFrame = errors.New("not a sensor frame")

// Frame is one decoded sensor value.
type Frame struct {
	SensorName string
	Value      float64
	Unit       string
}

// rawFrame mirrors the JSON object. The Arduino sketch sends value either
// as a number or as a quoted string.
type rawFrame struct {
	SensorName string          `json:"sensorName"`
	Value      json.RawMessage `json:"value"`
	Unit       string          `json:"unit"`
}

// ParseFrame decodes a single serial line.
func ParseFrame(line string) (Frame, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, FramePrefix) {
		return Frame{}, ErrNotFrame
	}

	var raw rawFrame
	if err := json.Unmarshal([]byte(strings.Trim(line, frameMarkers)), &raw); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if raw.SensorName == "" {
		return Frame{}, errors.New("frame has no sensorName")
	}

	value, err := parseValue(raw.Value)
	if err != nil {
		return Frame{}, fmt.Errorf("sensor %s: %w", raw.SensorName, err)
	}

	return Frame{
		SensorName: raw.SensorName,
		Value:      value,
		Unit:       raw.Unit,
	}, nil
}

func parseValue(msg json.RawMessage) (float64, error) {
	if len(msg) == 0 || string(msg) == "null" {
		return 0, errors.New("missing value")
	}

	var n float64
	if err := json.Unmarshal(msg, &n); err != nil {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return 0, fmt.Errorf("value %s is neither number nor string", msg)
		}
		n, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("parse value %q: %w", s, err)
		}
	}
	// The sketch prints "nan" when a sensor read fails.
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("value %s is not a finite number", msg)
	}
	return n, nil
}
