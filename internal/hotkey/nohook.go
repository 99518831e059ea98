//go:build nohook

package hotkey

import "context"

type noopBackend struct{}

// NewBackend returns a backend that never fires, for builds without a
// keyboard hook.
func NewBackend() Backend {
	return noopBackend{}
}

func (noopBackend) Register([]Modifier, string, func()) error { return nil }

func (noopBackend) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
