// Package grow contains the data model shared by the grow-monitor programs.
// This package has NO external dependencies (no GPIO, serial, SQL or network).
package grow

import "time"

// TimestampLayout is the local-time layout used for stored readings,
// pump events and spreadsheet rows.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// MoistureChannels is the number of soil moisture channels on the Grow HAT.
const MoistureChannels = 3

// SensorReading is one combined sample written to the sensors table.
type SensorReading struct {
	Timestamp string
	// Temperature and Light come from the Arduino and may be missing.
	Temperature *float64
	Light       *float64
	// Moisture holds percentages for channels 1..3. Always complete.
	Moisture [MoistureChannels]float64
}

// PumpEvent is a watering event scraped from the system log.
// The full tuple is its identity.
type PumpEvent struct {
	Timestamp string
	Channel   int
	Rate      float64
	Duration  float64
}

// Float returns a pointer to v. Used for the optional reading fields.
func Float(v float64) *float64 {
	return &v
}
