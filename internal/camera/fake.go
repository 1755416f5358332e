package camera

import "context"

// FakeCamera is a test double that returns a fixed image.
type FakeCamera struct {
	// Image is returned by every Capture.
	Image []byte

	// CaptureError, if set, is returned instead.
	CaptureError error

	// Captures counts Capture calls.
	Captures int
}

// Capture returns Image or CaptureError.
func (f *FakeCamera) Capture(ctx context.Context) ([]byte, error) {
	f.Captures++
	if f.CaptureError != nil {
		return nil, f.CaptureError
	}
	return f.Image, nil
}
