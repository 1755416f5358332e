// Package camera captures still JPEG images from a V4L2 webcam.
package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultDevice is the first V4L2 capture device.
const DefaultDevice = "/dev/video0"

// DefaultSettle is how long warm-up frames are discarded so exposure can adjust.
const DefaultSettle = 2 * time.Second

// Capturer returns one encoded JPEG image.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Webcam captures MJPEG stills from a V4L2 device at its largest frame size.
type Webcam struct {
	Device string
	Settle time.Duration

	// FrameTimeout bounds each wait for a frame, in seconds.
	FrameTimeout uint32
}

// NewWebcam returns a Webcam for device with default timings.
func NewWebcam(device string) *Webcam {
	return &Webcam{Device: device, Settle: DefaultSettle, FrameTimeout: 5}
}

// FrameSize is a capture resolution.
type FrameSize struct {
	Width, Height uint32
}

// Largest returns the size with the most pixels.
func Largest(sizes []FrameSize) (FrameSize, bool) {
	var best FrameSize
	for _, s := range sizes {
		if uint64(s.Width)*uint64(s.Height) > uint64(best.Width)*uint64(best.Height) {
			best = s
		}
	}
	return best, best.Width > 0 && best.Height > 0
}

// FileName is the name a capture taken at t is saved under.
func FileName(t time.Time) string {
	return "image_" + t.Format("2006-01-02_15-04-05") + ".jpg"
}

// SaveCapture captures one image and writes it into dir. It returns the
// path written and the image bytes.
func SaveCapture(ctx context.Context, c Capturer, dir string, now time.Time) (string, []byte, error) {
	data, err := c.Capture(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("camera: empty frame")
	}

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("camera: save %s: %w", path, err)
	}
	return path, data, nil
}
