package screen

import (
	"image"

	"github.com/kbinani/screenshot"
)

// displayBackend captures through the OS display APIs (X11/XShm, CoreGraphics,
// GDI) via kbinani/screenshot.
type displayBackend struct{}

func (displayBackend) numDisplays() int { return screenshot.NumActiveDisplays() }

func (displayBackend) displayBounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }

func (displayBackend) captureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// New creates a capturer for the local displays.
func New() Capturer {
	return newBase(displayBackend{})
}
