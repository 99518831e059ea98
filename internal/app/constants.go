package app

import "time"

// App configuration constants
const (
	DefaultAutosaveInterval = 10 * time.Second

	UpdateBuffer = 64

	// How long shutdown waits for the worker to return.
	WorkerStopTimeout = 3 * time.Second
)
