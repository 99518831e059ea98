package screen

import (
	"context"
	"errors"
	"image"
	"testing"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

type fakeBackend struct {
	displays []image.Rectangle
	err      error
	lastRect image.Rectangle
}

func (f *fakeBackend) numDisplays() int                    { return len(f.displays) }
func (f *fakeBackend) displayBounds(i int) image.Rectangle { return f.displays[i] }

func (f *fakeBackend) captureRect(r image.Rectangle) (*image.RGBA, error) {
	f.lastRect = r
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
}

func TestCaptureSecondMonitor(t *testing.T) {
	fb := &fakeBackend{displays: []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(1920, 0, 1920+2560, 1440),
	}}
	c := newBase(fb)

	img, err := c.Capture(context.Background(), 1)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img.Bounds().Dx() != 2560 || img.Bounds().Dy() != 1440 {
		t.Errorf("frame = %v, want 2560x1440", img.Bounds())
	}
	if fb.lastRect != fb.displays[1] {
		t.Errorf("captured %v, want %v", fb.lastRect, fb.displays[1])
	}
	if c.NumMonitors() != 2 {
		t.Errorf("NumMonitors = %d", c.NumMonitors())
	}
}

func TestCaptureMissingMonitor(t *testing.T) {
	c := newBase(&fakeBackend{displays: []image.Rectangle{image.Rect(0, 0, 10, 10)}})

	for _, idx := range []int{-1, 1, 5} {
		_, err := c.Capture(context.Background(), idx)
		if !apperrors.IsCode(err, apperrors.CaptureNoMonitor) {
			t.Errorf("Capture(%d) = %v, want CaptureNoMonitor", idx, err)
		}
	}
}

func TestCaptureBackendFailure(t *testing.T) {
	c := newBase(&fakeBackend{
		displays: []image.Rectangle{image.Rect(0, 0, 10, 10)},
		err:      errors.New("xshm attach failed"),
	})

	_, err := c.Capture(context.Background(), 0)
	if !apperrors.IsCode(err, apperrors.CaptureFailed) {
		t.Errorf("Capture = %v, want CaptureFailed", err)
	}
}

func TestCaptureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newBase(&fakeBackend{displays: []image.Rectangle{image.Rect(0, 0, 10, 10)}})
	if _, err := c.Capture(ctx, 0); !apperrors.IsCode(err, apperrors.Cancelled) {
		t.Errorf("Capture = %v, want Cancelled", err)
	}
}
