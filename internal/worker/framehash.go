package worker

import (
	"image"
	"log/slog"

	"github.com/corona10/goimagehash"
)

// frameSkipper remembers the perceptual hash of the last death crop that was
// red but did not read as the death phrase, so a static red scene is not sent
// to OCR every tick. It never skips more than MaxConsecutiveSkips frames in a
// row, which keeps a fading-in banner from being ignored.
type frameSkipper struct {
	lastNegative *goimagehash.ImageHash
	skipped      int
}

// Similar reports whether crop looks like the last negative crop and should
// be skipped.
func (f *frameSkipper) Similar(crop image.Image) bool {
	if f.lastNegative == nil || f.skipped >= MaxConsecutiveSkips {
		f.skipped = 0
		return false
	}

	hash, err := goimagehash.PerceptionHash(crop)
	if err != nil {
		return false
	}
	dist, err := f.lastNegative.Distance(hash)
	if err != nil || dist > MaxHashDistance {
		f.skipped = 0
		return false
	}

	f.skipped++
	slog.Debug("skipping ocr on unchanged death zone", "distance", dist)
	return true
}

// Remember stores crop as the latest negative.
func (f *frameSkipper) Remember(crop image.Image) {
	hash, err := goimagehash.PerceptionHash(crop)
	if err != nil {
		f.lastNegative = nil
		return
	}
	f.lastNegative = hash
}

// Reset forgets the last negative.
func (f *frameSkipper) Reset() {
	f.lastNegative = nil
	f.skipped = 0
}
