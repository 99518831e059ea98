//go:build notesseract

package ocr

import (
	"context"
	"image"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

// Tesseract is unavailable in builds tagged notesseract; use the remote
// engine instead.
type Tesseract struct{}

func NewTesseract(languages []string) (*Tesseract, error) {
	return &Tesseract{}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	return "", apperrors.New(apperrors.OCRInitFailed, "built without tesseract support")
}

func (t *Tesseract) Close() error { return nil }
