package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppErrorMessage(t *testing.T) {
	err := Wrap(stderrors.New("boom"), CaptureFailed, "capture display").WithMetadata("monitor", "1")

	msg := err.Error()
	for _, want := range []string{"[CAPTURE_FAILED]", "capture display", "monitor:1", "caused by: boom"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(OCRInitFailed, "tesseract missing")
	wrapped := fmt.Errorf("iteration: %w", base)

	if !IsCode(wrapped, OCRInitFailed) {
		t.Error("IsCode should see through fmt wrapping")
	}
	if IsCode(wrapped, OCRExtractFailed) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(stderrors.New("plain"), OCRInitFailed) {
		t.Error("plain errors carry no code")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(Unavailable, "x"), true},
		{New(Timeout, "x"), true},
		{New(StorageFailed, "x"), true},
		{New(ConfigInvalid, "x"), false},
		{New(NotFound, "x"), false},
		{stderrors.New("plain"), false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestFromGRPCError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), Unavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), Timeout},
		{"canceled", status.Error(codes.Canceled, "gone"), Cancelled},
		{"bad image", status.Error(codes.InvalidArgument, "not a png"), InvalidArgument},
		{"app error kept", Wrap(stderrors.New("x"), OCRInitFailed, "engine down"), OCRInitFailed},
		{"plain", stderrors.New("boom"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromGRPCError(tt.err).Code; got != tt.want {
				t.Errorf("FromGRPCError code = %v, want %v", got, tt.want)
			}
		})
	}
	if FromGRPCError(nil) != nil {
		t.Error("FromGRPCError(nil) should be nil")
	}
}

func TestCodeString(t *testing.T) {
	if OCRExtractFailed.String() != "OCR_EXTRACT_FAILED" {
		t.Errorf("String() = %q", OCRExtractFailed.String())
	}
	if Code(999).String() != "UNKNOWN" {
		t.Errorf("unknown code String() = %q", Code(999).String())
	}
}
