// Package screen captures full monitor frames.
package screen

import (
	"context"
	"image"
	"strconv"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

// Capturer grabs a full frame of one monitor.
type Capturer interface {
	Capture(ctx context.Context, monitor int) (*image.RGBA, error)
	NumMonitors() int
}

// backend implements platform-specific raw capture
type backend interface {
	numDisplays() int
	displayBounds(i int) image.Rectangle
	captureRect(r image.Rectangle) (*image.RGBA, error)
}

// baseCapturer validates the monitor index and classifies backend errors.
type baseCapturer struct {
	backend
}

func newBase(b backend) *baseCapturer {
	return &baseCapturer{backend: b}
}

func (c *baseCapturer) NumMonitors() int {
	return c.numDisplays()
}

func (c *baseCapturer) Capture(ctx context.Context, monitor int) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Cancelled, "capture cancelled")
	}
	n := c.numDisplays()
	if monitor < 0 || monitor >= n {
		return nil, apperrors.Newf(apperrors.CaptureNoMonitor, "monitor %d not found", monitor).
			WithMetadata("monitors", strconv.Itoa(n))
	}

	img, err := c.captureRect(c.displayBounds(monitor))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CaptureFailed, "capture monitor %d", monitor)
	}
	if img.Bounds().Empty() {
		return nil, apperrors.Newf(apperrors.CaptureFailed, "monitor %d returned an empty frame", monitor)
	}
	return img, nil
}
