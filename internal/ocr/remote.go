package ocr

import (
	"context"
	"image"
	"log/slog"
	"strings"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/grpcclient"
	"github.com/GriffinCanCode/deathwatch/internal/resilience"
)

// textExtractor is the slice of grpcclient.Client the remote engine uses.
type textExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Remote delegates recognition to an OCR service. Calls go through a circuit
// breaker; while it is open the engine reports OCRInitFailed so the detection
// loop backs off.
type Remote struct {
	client  textExtractor
	breaker *resilience.Breaker
}

// NewRemote connects to the OCR service at addr and waits, with retries, for
// its health check. An unreachable service is logged, not fatal: the breaker
// takes over once scanning starts.
func NewRemote(ctx context.Context, addr string) (*Remote, error) {
	if addr == "" {
		return nil, apperrors.New(apperrors.ConfigMissing, "remote ocr address is empty")
	}
	client, err := grpcclient.New(addr)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.OCRInitFailed, "dial ocr service")
	}
	r := newRemote(client, addr)

	if err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		return client.Ping(ctx)
	}); err != nil {
		slog.Warn("ocr service not ready", "addr", addr, "error", err)
	}
	return r, nil
}

func newRemote(client textExtractor, addr string) *Remote {
	breaker := resilience.New(resilience.OCRConfig()).WithHook(func(_, to resilience.State) {
		switch to {
		case resilience.Open:
			slog.Warn("remote ocr unreachable, scans back off", "addr", addr)
		case resilience.Closed:
			slog.Info("remote ocr reachable again", "addr", addr)
		}
	})
	return &Remote{client: client, breaker: breaker}
}

// Recognize implements Engine.
func (r *Remote) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	text, err := resilience.ExecuteWithResult(r.breaker, func() (string, error) {
		return r.client.ExtractText(ctx, data)
	})
	if err != nil {
		// Only an unreachable service earns the engine backoff; ErrOpen is
		// Unavailable too. A slow or failed single call is a plain miss.
		if apperrors.FromGRPCError(err).Code == apperrors.Unavailable {
			return "", apperrors.Wrap(err, apperrors.OCRInitFailed, "ocr service unavailable")
		}
		return "", apperrors.Wrap(err, apperrors.OCRExtractFailed, "remote ocr")
	}
	return strings.TrimSpace(text), nil
}

// Close implements Engine.
func (r *Remote) Close() error {
	return r.client.Close()
}
