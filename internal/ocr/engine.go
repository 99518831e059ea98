// Package ocr provides the text recognition engines used by the detection
// loop: a local Tesseract engine and a remote gRPC engine.
package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

// Engine recognises text in an image. Implementations must be safe for
// concurrent use.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Close() error
}

// Kind names an engine implementation.
const (
	KindTesseract = "tesseract"
	KindRemote    = "remote"
)

// Options selects and configures an engine.
type Options struct {
	Kind       string
	Languages  []string
	RemoteAddr string
}

// New builds the engine named by opts.Kind.
func New(ctx context.Context, opts Options) (Engine, error) {
	var (
		eng Engine
		err error
	)
	switch opts.Kind {
	case KindTesseract, "":
		eng, err = NewTesseract(opts.Languages)
	case KindRemote:
		eng, err = NewRemote(ctx, opts.RemoteAddr)
	default:
		err = apperrors.Newf(apperrors.ConfigInvalid, "unknown ocr engine %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// encodePNG serialises img losslessly for engines that take encoded bytes.
func encodePNG(img image.Image) ([]byte, error) {
	if img.Bounds().Empty() {
		return nil, apperrors.New(apperrors.OCRInvalidImage, "empty image")
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.OCRInvalidImage, "encode png")
	}
	return buf.Bytes(), nil
}
