package worker

import "time"

// Gate suppresses repeated detections of the same death. The first
// detection always passes.
type Gate struct {
	cooldown time.Duration
	last     time.Time
	fired    bool
}

// NewGate creates a gate with the given cooldown.
func NewGate(cooldown time.Duration) *Gate {
	return &Gate{cooldown: cooldown}
}

// Allow reports whether a detection at now should be acted on.
func (g *Gate) Allow(now time.Time) bool {
	return !g.fired || now.Sub(g.last) > g.cooldown
}

// Mark records a completed detection.
func (g *Gate) Mark(now time.Time) {
	g.last = now
	g.fired = true
}
