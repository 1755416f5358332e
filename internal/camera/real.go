//go:build linux

package camera

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/blackjack/webcam"
)

// formatMJPEG is the V4L2 fourcc "MJPG".
const formatMJPEG webcam.PixelFormat = 0x47504A4D

// maxTimeouts is how many consecutive frame timeouts end a capture.
const maxTimeouts = 3

// Capture opens the device, streams until the settle period has passed and
// returns the next frame. The device is always released before returning.
func (w *Webcam) Capture(ctx context.Context) ([]byte, error) {
	cam, err := webcam.Open(w.Device)
	if err != nil {
		return nil, fmt.Errorf("camera: open %s: %w", w.Device, err)
	}
	defer cam.Close()

	if _, ok := cam.GetSupportedFormats()[formatMJPEG]; !ok {
		return nil, fmt.Errorf("camera: %s does not support MJPEG", w.Device)
	}

	var sizes []FrameSize
	for _, fs := range cam.GetSupportedFrameSizes(formatMJPEG) {
		sizes = append(sizes, FrameSize{Width: fs.MaxWidth, Height: fs.MaxHeight})
	}
	size, ok := Largest(sizes)
	if !ok {
		return nil, fmt.Errorf("camera: %s reports no MJPEG frame sizes", w.Device)
	}

	_, width, height, err := cam.SetImageFormat(formatMJPEG, size.Width, size.Height)
	if err != nil {
		return nil, fmt.Errorf("camera: set format: %w", err)
	}
	log.Printf("camera: capturing %dx%d from %s", width, height, w.Device)

	if err := cam.StartStreaming(); err != nil {
		return nil, fmt.Errorf("camera: start streaming: %w", err)
	}
	defer cam.StopStreaming()

	settled := time.Now().Add(w.Settle)
	timeouts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := cam.WaitForFrame(w.FrameTimeout)
		var timeout *webcam.Timeout
		switch {
		case err == nil:
			timeouts = 0
		case errors.As(err, &timeout):
			timeouts++
			if timeouts >= maxTimeouts {
				return nil, fmt.Errorf("camera: no frame after %d timeouts", timeouts)
			}
			continue
		default:
			return nil, fmt.Errorf("camera: wait for frame: %w", err)
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("camera: read frame: %w", err)
		}
		if len(frame) == 0 || time.Now().Before(settled) {
			continue
		}

		// frame aliases the mmap buffer, which is unmapped on Close.
		out := make([]byte, len(frame))
		copy(out, frame)
		return out, nil
	}
}
