// Package syncx holds small synchronization helpers.
package syncx

import "sync"

// RWGuard publishes a value written by one goroutine to many readers.
// Stored values must not be mutated after Set; readers share them.
type RWGuard[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *RWGuard[T] {
	return &RWGuard[T]{value: initial}
}

// Get returns the current value.
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Load returns the current value with its version. The version grows by one
// on every Set or Update.
func (g *RWGuard[T]) Load() (T, uint64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value, g.version
}

// Set replaces the value.
func (g *RWGuard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
	g.version++
}

// Update replaces the value with fn applied to the current one and returns
// the result.
func (g *RWGuard[T]) Update(fn func(T) T) T {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = fn(g.value)
	g.version++
	return g.value
}
