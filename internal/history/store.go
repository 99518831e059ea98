// Package history keeps a bounded log of recent detections.
package history

import (
	"sync"
	"time"
)

// Kind identifies what an entry records.
type Kind string

const (
	KindDeath  Kind = "death"
	KindBoss   Kind = "boss"
	KindManual Kind = "manual"
)

// Entry is one recorded detection.
type Entry struct {
	Time     time.Time `json:"time"`
	Kind     Kind      `json:"kind"`
	Label    string    `json:"label,omitempty"`
	Recorder string    `json:"recorder,omitempty"`
	Match    string    `json:"match,omitempty"`
}

// Store is an in-memory ring of entries that also fans new entries out on a
// buffered channel.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
	events  chan Entry
}

// NewStore creates a store holding at most maxEntries.
func NewStore(maxEntries, eventBuffer int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		entries: make([]Entry, 0, maxEntries),
		maxSize: maxEntries,
		events:  make(chan Entry, eventBuffer),
	}
}

// Add records e, stamping it with the current time if unset, and emits it.
func (s *Store) Add(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[len(s.entries)-s.maxSize:]
	}
	s.mu.Unlock()

	s.Emit(e)
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (s *Store) Recent(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Since returns entries recorded after t, oldest first.
func (s *Store) Since(t time.Time) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.Time.After(t) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Events returns the channel new entries are emitted on.
func (s *Store) Events() <-chan Entry {
	return s.events
}

// Emit sends e without blocking; it is dropped when nobody keeps up.
func (s *Store) Emit(e Entry) {
	select {
	case s.events <- e:
	default:
	}
}
