// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Per-connection limit on inbound WebSocket commands
	RateLimitMessages = 20
	RateLimitWindow   = time.Second

	// Default and maximum entries returned by /api/history
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	// Deadline for one broadcast write to a slow client
	WriteTimeout = 2 * time.Second

	// Upper bound on request bodies
	MaxBodyBytes = 1 << 16
)
