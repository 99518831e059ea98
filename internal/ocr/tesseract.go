//go:build !notesseract

package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/otiai10/gosseract"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

// Tesseract runs libtesseract in process. A gosseract client is not safe for
// concurrent use, so every call gets its own.
type Tesseract struct {
	languages []string
}

// NewTesseract creates an engine for the given tesseract language codes.
func NewTesseract(languages []string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages}, nil
}

// Recognize implements Engine.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(err, apperrors.Cancelled, "ocr cancelled")
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", apperrors.Wrap(err, apperrors.OCRInitFailed, "set tesseract languages")
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", apperrors.Wrap(err, apperrors.OCRInvalidImage, "load image")
	}
	text, err := client.Text()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "initialize") {
			return "", apperrors.Wrap(err, apperrors.OCRInitFailed, "initialise tesseract")
		}
		return "", apperrors.Wrap(err, apperrors.OCRExtractFailed, "tesseract")
	}
	return strings.TrimSpace(text), nil
}

// Close implements Engine.
func (t *Tesseract) Close() error { return nil }
