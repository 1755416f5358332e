// Package mqtt publishes grow readings and pump events, with an abstraction
// for testing.
package mqtt

import (
	"encoding/json"

	"github.com/sweeney/grow-monitor/internal/grow"
)

// TopicReadings is the MQTT topic for combined sensor readings.
const TopicReadings = "garden/grow/readings"

// TopicPump is the MQTT topic for scraped pump events.
const TopicPump = "garden/grow/pump"

// Publisher publishes grow data to MQTT. Publishing is best effort: errors
// are returned for logging and never stop a sampling run.
type Publisher interface {
	// PublishReading sends a combined reading. It is retained so new
	// subscribers see the latest sample.
	PublishReading(r grow.SensorReading) error

	// PublishPumpEvent sends one newly recorded pump event.
	PublishPumpEvent(e grow.PumpEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ReadingPayload is the message body on TopicReadings.
type ReadingPayload struct {
	Reading ReadingFields `json:"reading"`
}

// ReadingFields holds one reading. Temperature and Light are null when the
// Arduino did not report them.
type ReadingFields struct {
	Timestamp   string    `json:"timestamp"`
	Temperature *float64  `json:"temperature"`
	Light       *float64  `json:"light"`
	Moisture    []float64 `json:"moisture"`
}

// PumpPayload is the message body on TopicPump.
type PumpPayload struct {
	Pump PumpFields `json:"pump"`
}

// PumpFields holds one pump event.
type PumpFields struct {
	Timestamp string  `json:"timestamp"`
	Channel   int     `json:"channel"`
	Rate      float64 `json:"rate"`
	Duration  float64 `json:"duration"`
}

// FormatReading creates the JSON payload for a reading.
func FormatReading(r grow.SensorReading) ([]byte, error) {
	return json.Marshal(ReadingPayload{
		Reading: ReadingFields{
			Timestamp:   r.Timestamp,
			Temperature: r.Temperature,
			Light:       r.Light,
			Moisture:    r.Moisture[:],
		},
	})
}

// FormatPumpEvent creates the JSON payload for a pump event.
func FormatPumpEvent(e grow.PumpEvent) ([]byte, error) {
	return json.Marshal(PumpPayload{
		Pump: PumpFields{
			Timestamp: e.Timestamp,
			Channel:   e.Channel,
			Rate:      e.Rate,
			Duration:  e.Duration,
		},
	})
}
