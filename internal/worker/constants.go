package worker

// Detection loop constants
const (
	// Hamming distance at or below which two death crops count as the same.
	MaxHashDistance = 2

	// Upper bound on back-to-back skipped OCR runs.
	MaxConsecutiveSkips = 2

	eventBuffer = 100
)
