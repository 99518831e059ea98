// Package imageproc holds the pixel-level operations used before OCR:
// zone cropping, channel extraction, tone curves, resampling and the red
// text prefilter.
package imageproc

import (
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"
)

// CropZone is a screen region expressed in percentages of the frame.
// X+Width and Y+Height must stay within 100.
type CropZone struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Valid reports whether the zone lies inside the frame.
func (z CropZone) Valid() bool {
	return z.X+z.Width <= 100 && z.Y+z.Height <= 100
}

func (z CropZone) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", z.X, z.Y, z.Width, z.Height)
}

// Rect converts the zone to pixel coordinates inside bounds, clamped so the
// result never exceeds the image.
func (z CropZone) Rect(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	x0 := bounds.Min.X + w*int(z.X)/100
	y0 := bounds.Min.Y + h*int(z.Y)/100
	r := image.Rect(x0, y0, x0+w*int(z.Width)/100, y0+h*int(z.Height)/100)
	return r.Intersect(bounds)
}

// Crop copies the zone out of img into a new image anchored at the origin.
// An empty zone yields a zero-sized image.
func Crop(img image.Image, z CropZone) *image.RGBA {
	r := z.Rect(img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if r.Empty() {
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// ParseZone parses "x,y,w,h".
func ParseZone(s string) (CropZone, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return CropZone{}, fmt.Errorf("zone %q: want x,y,w,h", s)
	}
	var v [4]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return CropZone{}, fmt.Errorf("zone %q: %w", s, err)
		}
		v[i] = uint32(n)
	}
	return CropZone{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// ParseZones parses a semicolon separated list of zones.
func ParseZones(s string) ([]CropZone, error) {
	var zones []CropZone
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		z, err := ParseZone(part)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}
