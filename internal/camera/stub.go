//go:build !linux

package camera

import (
	"context"
	"errors"
)

// Capture returns an error on non-Linux platforms.
func (w *Webcam) Capture(ctx context.Context) ([]byte, error) {
	return nil, errors.New("camera: v4l2 not supported on this platform (requires Linux)")
}
