package history

// Defaults used when the caller passes zero.
const (
	DefaultMaxEntries  = 200
	DefaultEventBuffer = 32
)
