package mqtt

import "github.com/sweeney/grow-monitor/internal/grow"

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Readings contains all readings that were published.
	Readings []grow.SensorReading

	// PumpEvents contains all pump events that were published.
	PumpEvents []grow.PumpEvent

	// Payloads contains the JSON payloads that were published, in order.
	Payloads [][]byte

	// PublishError, if set, will be returned by every publish call.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReading records the reading.
func (f *FakePublisher) PublishReading(r grow.SensorReading) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatReading(r)
	if err != nil {
		return err
	}
	f.Readings = append(f.Readings, r)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishPumpEvent records the pump event.
func (f *FakePublisher) PublishPumpEvent(e grow.PumpEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPumpEvent(e)
	if err != nil {
		return err
	}
	f.PumpEvents = append(f.PumpEvents, e)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
