package grpcclient

import "time"

// Client configuration defaults
const (
	// OCRService is the fully qualified name of the remote OCR service.
	OCRService        = "deathwatch.OCRService"
	extractTextMethod = "/" + OCRService + "/ExtractText"

	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second

	// ExtractTimeout bounds a single remote OCR call.
	ExtractTimeout     = 3 * time.Second
	HealthCheckTimeout = 2 * time.Second
)
