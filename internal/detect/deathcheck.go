package detect

import (
	"context"
	"image"
	"log/slog"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/imageproc"
)

const deathOCRHeight = 120

type deathPass struct {
	name     string
	gamma    float64
	contrast float64
}

// The second pass is only tried when the first one misses.
var deathPasses = []deathPass{
	{name: "death_pass1", gamma: 0.4},
	{name: "death_pass2", gamma: 0.3, contrast: 2.0},
}

// DeathChecker runs the death banner OCR passes on a death zone crop.
type DeathChecker struct {
	rec       Recognizer
	phrase    string
	threshold float64
	sink      ImageSink
}

// NewDeathChecker creates a checker for phrase. threshold is the Jaro-Winkler
// score (0-100) above which fuzzy matches count. sink may be nil.
func NewDeathChecker(rec Recognizer, phrase string, threshold float64, sink ImageSink) *DeathChecker {
	return &DeathChecker{rec: rec, phrase: phrase, threshold: threshold, sink: sink}
}

// Check returns the best match over the OCR passes. OCR failures count as a
// miss; only an engine initialisation failure is returned.
func (c *DeathChecker) Check(ctx context.Context, crop *image.RGBA) (DeathMatch, error) {
	red := imageproc.RedChannel(crop)

	var best DeathMatch
	for _, p := range deathPasses {
		img := imageproc.Gamma(red, p.gamma)
		if p.contrast != 0 {
			img = imageproc.Contrast(img, p.contrast)
		}
		img = imageproc.ResizeToHeight(img, deathOCRHeight, imageproc.CatmullRom)
		if c.sink != nil {
			c.sink.Save(p.name, img)
		}

		text, err := c.rec.Recognize(ctx, img)
		if err != nil {
			if apperrors.IsCode(err, apperrors.OCRInitFailed) {
				return DeathMatch{}, err
			}
			slog.Debug("death pass ocr failed", "pass", p.name, "error", err)
			continue
		}

		m := MatchDeath(text, c.phrase, c.threshold)
		if m.Matched {
			return m, nil
		}
		if m.Similarity > best.Similarity {
			best = m
		}
	}
	return best, nil
}
