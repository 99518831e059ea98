package imageproc

import (
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

// Filter selects the resampling kernel used by Resize.
type Filter = resize.InterpolationFunction

const (
	// CatmullRom is nfnt's bicubic kernel (a = -0.5).
	CatmullRom Filter = resize.Bicubic
	// Lanczos is the high quality kernel used for boss name variants.
	Lanczos Filter = resize.Lanczos3
)

// RedChannel returns a grayscale image holding only the red channel of img.
func RedChannel(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// Grayscale converts img to luminance.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Gamma maps every pixel v to 255*(v/255)^gamma. Values below 1 brighten.
func Gamma(img *image.Gray, gamma float64) *image.Gray {
	var lut [256]uint8
	for i := range lut {
		lut[i] = clamp8(255 * math.Pow(float64(i)/255, gamma))
	}
	return applyLUT(img, &lut)
}

// Contrast maps every pixel v to (v-128)*factor+128.
func Contrast(img *image.Gray, factor float64) *image.Gray {
	var lut [256]uint8
	for i := range lut {
		lut[i] = clamp8((float64(i)-128)*factor + 128)
	}
	return applyLUT(img, &lut)
}

// Resize resamples img to width x height using filter.
func Resize(img *image.Gray, width, height int, filter Filter) *image.Gray {
	if width <= 0 || height <= 0 || img.Bounds().Empty() {
		return image.NewGray(image.Rect(0, 0, max(width, 0), max(height, 0)))
	}
	out := resize.Resize(uint(width), uint(height), img, filter)
	if g, ok := out.(*image.Gray); ok {
		return g
	}
	return Grayscale(out)
}

// ResizeToHeight scales img to height keeping its aspect ratio.
func ResizeToHeight(img *image.Gray, height int, filter Filter) *image.Gray {
	b := img.Bounds()
	if b.Dy() == 0 {
		return Resize(img, 0, 0, filter)
	}
	width := b.Dx() * height / b.Dy()
	return Resize(img, max(width, 1), height, filter)
}

// Scale multiplies both dimensions of img by factor.
func Scale(img *image.Gray, factor int, filter Filter) *image.Gray {
	b := img.Bounds()
	return Resize(img, b.Dx()*factor, b.Dy()*factor, filter)
}

func applyLUT(img *image.Gray, lut *[256]uint8) *image.Gray {
	out := image.NewGray(img.Bounds())
	for i, v := range img.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
