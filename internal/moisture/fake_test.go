package moisture

import (
	"errors"
	"testing"
)

func TestFakeSensorRead(t *testing.T) {
	f := NewFakeSensor(10, 20)

	v, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 10 {
		t.Errorf("read 0: got %v, want 10", v)
	}

	v, _ = f.Read()
	if v != 20 {
		t.Errorf("read 1: got %v, want 20", v)
	}

	// Exhausted values repeat the last one
	v, _ = f.Read()
	if v != 20 {
		t.Errorf("read 2 (repeat): got %v, want 20", v)
	}
}

func TestFakeSensorNoValues(t *testing.T) {
	f := NewFakeSensor()
	if _, err := f.Read(); err == nil {
		t.Error("expected error with no values")
	}
}

func TestFakeSensorError(t *testing.T) {
	f := NewFakeSensor(10)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeSensorFailAfter(t *testing.T) {
	f := NewFakeSensor(10)
	f.FailAfter = 1

	if _, err := f.Read(); err != nil {
		t.Fatalf("first read: unexpected error: %v", err)
	}
	if _, err := f.Read(); err == nil {
		t.Error("second read: expected error")
	}
}
