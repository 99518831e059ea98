package resilience

import "time"

// Circuit breaker defaults
const (
	DefaultThreshold         = 5
	DefaultResetTimeout      = 30 * time.Second
	DefaultHalfOpenSuccesses = 3

	// Remote OCR sits on the hot path of every scan, so it trips early and
	// probes again soon.
	OCRThreshold         = 3
	OCRResetTimeout      = 10 * time.Second
	OCRHalfOpenSuccesses = 1
)

// Config holds circuit breaker settings.
type Config struct {
	Name              string
	Threshold         int           // failures before opening
	ResetTimeout      time.Duration // wait before half-open attempt
	HalfOpenSuccesses int           // successes needed to close
}

// OCRConfig returns the settings used in front of the remote OCR service.
func OCRConfig() Config {
	return Config{
		Name:              "remote_ocr",
		Threshold:         OCRThreshold,
		ResetTimeout:      OCRResetTimeout,
		HalfOpenSuccesses: OCRHalfOpenSuccesses,
	}
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = DefaultHalfOpenSuccesses
	}
	return c
}
