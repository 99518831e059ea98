package storage

import "time"

// DefaultFlushDelay batches the writes of a burst of recorder changes.
const DefaultFlushDelay = 500 * time.Millisecond

// FailedWriteRetryDelay is how long a snapshot whose write failed waits
// before it is tried again.
const FailedWriteRetryDelay = 5 * time.Second
