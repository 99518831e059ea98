package detect

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/imageproc"
	"github.com/GriffinCanCode/deathwatch/internal/trace"
)

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// ImageSink receives intermediate images for offline inspection.
type ImageSink interface {
	Save(name string, img image.Image)
}

// Variant is one preprocessing recipe applied to a boss zone before OCR.
type Variant struct {
	Gamma    float64
	Contrast float64 // 0 leaves contrast untouched
}

func (v Variant) String() string {
	if v.Contrast == 0 {
		return fmt.Sprintf("gamma%.2f", v.Gamma)
	}
	return fmt.Sprintf("gamma%.2f_contrast%.1f", v.Gamma, v.Contrast)
}

// Apply runs the recipe on a grayscale crop and upscales the result 4x.
func (v Variant) Apply(gray *image.Gray) *image.Gray {
	out := imageproc.Gamma(gray, v.Gamma)
	if v.Contrast != 0 {
		out = imageproc.Contrast(out, v.Contrast)
	}
	return imageproc.Scale(out, bossUpscale, imageproc.Lanczos)
}

// BossVariants brighten progressively, then add contrast on the middle gamma.
var BossVariants = []Variant{
	{Gamma: 0.20},
	{Gamma: 0.25},
	{Gamma: 0.30},
	{Gamma: 0.35},
	{Gamma: 0.40},
	{Gamma: 0.30, Contrast: 1.3},
	{Gamma: 0.30, Contrast: 1.5},
}

const (
	bossUpscale = 4
	// FrequencyBonus is added per variant that produced the same text.
	FrequencyBonus = 2.5
	maxParallelOCR = 4
)

// Candidate is a cleaned boss name with its boosted score.
type Candidate struct {
	Text  string
	Score float64
	Count int
}

// Rank scores raw OCR texts, merges duplicates by their cleaned form and
// returns them best first. Each distinct text gets FrequencyBonus for every
// occurrence.
func Rank(texts []string) []Candidate {
	index := make(map[string]int)
	var out []Candidate
	for _, raw := range texts {
		cleaned := Clean(raw)
		if cleaned == "" {
			continue
		}
		s := Score(raw)
		i, ok := index[cleaned]
		if !ok {
			index[cleaned] = len(out)
			out = append(out, Candidate{Text: cleaned, Score: s, Count: 1})
			continue
		}
		out[i].Count++
		if s > out[i].Score {
			out[i].Score = s
		}
	}
	for i := range out {
		out[i].Score += FrequencyBonus * float64(out[i].Count)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

// BossScanner reads boss names from the configured zones of a frame.
type BossScanner struct {
	rec      Recognizer
	zones    []imageproc.CropZone
	minScore float64
	sink     ImageSink
}

// NewBossScanner creates a scanner. sink may be nil.
func NewBossScanner(rec Recognizer, zones []imageproc.CropZone, minScore float64, sink ImageSink) *BossScanner {
	return &BossScanner{rec: rec, zones: zones, minScore: minScore, sink: sink}
}

// Scan walks the zones in order and collects the best candidate of each.
// It stops at the first zone with no candidate scoring above minScore.
func (s *BossScanner) Scan(ctx context.Context, frame image.Image) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "boss_scan")
	defer span.End()

	var names []string
	for i, zone := range s.zones {
		crop := imageproc.Crop(frame, zone)
		if crop.Bounds().Empty() {
			break
		}
		cands, err := s.ZoneCandidates(ctx, crop, i)
		if err != nil {
			return names, err
		}
		if len(cands) == 0 || cands[0].Score <= s.minScore {
			break
		}
		trace.Logger(ctx).Debug("boss candidate", "zone", i, "text", cands[0].Text, "score", cands[0].Score)
		names = append(names, cands[0].Text)
	}
	return names, nil
}

// ZoneCandidates runs every variant through OCR and ranks the results.
// Individual OCR failures are skipped; an engine initialisation failure
// aborts the zone.
func (s *BossScanner) ZoneCandidates(ctx context.Context, crop *image.RGBA, zoneIdx int) ([]Candidate, error) {
	gray := imageproc.Grayscale(crop)
	texts := make([]string, len(BossVariants))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelOCR)
	for i, v := range BossVariants {
		g.Go(func() error {
			img := v.Apply(gray)
			if s.sink != nil {
				s.sink.Save(fmt.Sprintf("boss_zone%d_%s", zoneIdx, v), img)
			}
			text, err := s.rec.Recognize(gctx, img)
			if err != nil {
				if apperrors.IsCode(err, apperrors.OCRInitFailed) {
					return err
				}
				slog.Debug("boss variant ocr failed", "variant", v.String(), "error", err)
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Rank(texts), nil
}
