package chime

import "time"

// Tone defaults
const (
	DefaultSampleRate = 44100
	DefaultFrequency  = 880.0
	DefaultDuration   = 180 * time.Millisecond
	DefaultVolume     = 0.3

	framesPerBuffer = 512 // ~12ms at 44100Hz
)
