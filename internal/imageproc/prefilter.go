package imageproc

import "image"

const (
	// A pixel counts as red when its red component is above redFloor and
	// dominates both green and blue by at least redMargin.
	redFloor  = 60
	redMargin = 20

	// RedRatioThreshold is the fraction of red pixels above which a crop is
	// worth sending to OCR.
	RedRatioThreshold = 0.01
)

// RedRatio returns the fraction of red-dominant pixels in img.
func RedRatio(img *image.RGBA) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	red := 0
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			r, g, bl := int(row[i]), int(row[i+1]), int(row[i+2])
			if r > redFloor && r > g+redMargin && r > bl+redMargin {
				red++
			}
		}
	}
	return float64(red) / float64(total)
}

// HasRedText reports whether img contains enough red pixels to plausibly
// hold the death banner.
func HasRedText(img *image.RGBA) bool {
	return RedRatio(img) > RedRatioThreshold
}
