package moisture

import "errors"

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	// Values contains scripted readings. Each call to Read consumes the next
	// value; once exhausted, the last value repeats.
	Values []float64

	// index tracks current position in Values
	index int

	// ReadError, if set, is returned by Read.
	ReadError error

	// FailAfter, if > 0, makes every Read after the first FailAfter calls
	// return ReadError (or a generic error).
	FailAfter int

	// Reads counts Read calls.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSensor creates a FakeSensor with the given readings.
func NewFakeSensor(values ...float64) *FakeSensor {
	return &FakeSensor{Values: values}
}

// Read returns the next scripted reading.
func (f *FakeSensor) Read() (float64, error) {
	f.Reads++
	if f.FailAfter > 0 && f.Reads > f.FailAfter {
		if f.ReadError != nil {
			return 0, f.ReadError
		}
		return 0, errors.New("sensor stopped responding")
	}
	if f.FailAfter == 0 && f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}

	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}
