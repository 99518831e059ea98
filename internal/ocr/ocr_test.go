package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/resilience"
)

type mockExtractor struct {
	text  string
	err   error
	calls int
}

func (m *mockExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	m.calls++
	return m.text, m.err
}

func (m *mockExtractor) Ping(ctx context.Context) error { return nil }
func (m *mockExtractor) Close() error                   { return nil }

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 8, 8))
}

func TestRemoteRecognize(t *testing.T) {
	m := &mockExtractor{text: "  Margit, the Fell Omen\n"}
	text, err := newRemote(m, "test").Recognize(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "Margit, the Fell Omen" {
		t.Errorf("text = %q", text)
	}
}

func TestRemoteErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.Code
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), apperrors.OCRInitFailed},
		{"slow call", status.Error(codes.DeadlineExceeded, "deadline exceeded"), apperrors.OCRExtractFailed},
		{"cancelled", status.Error(codes.Canceled, "context canceled"), apperrors.OCRExtractFailed},
		{"bad image", status.Error(codes.InvalidArgument, "not an image"), apperrors.OCRExtractFailed},
		{"plain", errors.New("boom"), apperrors.OCRExtractFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newRemote(&mockExtractor{err: tt.err}, "test").Recognize(context.Background(), testImage())
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("Recognize error = %v, want %v", err, tt.code)
			}
		})
	}
}

func TestRemoteBreakerOpens(t *testing.T) {
	m := &mockExtractor{err: errors.New("boom")}
	r := newRemote(m, "test")

	for i := 0; i < resilience.OCRThreshold; i++ {
		_, _ = r.Recognize(context.Background(), testImage())
	}
	_, err := r.Recognize(context.Background(), testImage())
	if !apperrors.IsCode(err, apperrors.OCRInitFailed) {
		t.Errorf("open breaker error = %v, want OCRInitFailed", err)
	}
	if m.calls != resilience.OCRThreshold {
		t.Errorf("calls = %d, want %d", m.calls, resilience.OCRThreshold)
	}
}

func TestRemoteCancellationKeepsBreakerClosed(t *testing.T) {
	m := &mockExtractor{err: status.Error(codes.Canceled, "context canceled")}
	r := newRemote(m, "test")

	for i := 0; i < resilience.OCRThreshold+1; i++ {
		_, _ = r.Recognize(context.Background(), testImage())
	}
	if m.calls != resilience.OCRThreshold+1 {
		t.Errorf("calls = %d, cancelled calls must not open the breaker", m.calls)
	}
}

func TestEncodeEmptyImage(t *testing.T) {
	_, err := encodePNG(image.NewGray(image.Rect(0, 0, 0, 0)))
	if !apperrors.IsCode(err, apperrors.OCRInvalidImage) {
		t.Errorf("encodePNG error = %v, want OCRInvalidImage", err)
	}
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := New(context.Background(), Options{Kind: "paddle"})
	if !apperrors.IsCode(err, apperrors.ConfigInvalid) {
		t.Errorf("New error = %v, want ConfigInvalid", err)
	}
	_, err = New(context.Background(), Options{Kind: KindRemote})
	if !apperrors.IsCode(err, apperrors.ConfigMissing) {
		t.Errorf("remote without addr = %v, want ConfigMissing", err)
	}
}
