//go:build !nohook

package hotkey

import (
	"context"

	hook "github.com/robotn/gohook"
)

type gohookBackend struct{}

// NewBackend returns the system-wide keyboard hook.
func NewBackend() Backend {
	return gohookBackend{}
}

func (gohookBackend) Register(mods []Modifier, key string, fn func()) error {
	keys := make([]string, 0, len(mods)+1)
	for _, m := range mods {
		keys = append(keys, string(m))
	}
	keys = append(keys, key)
	hook.Register(hook.KeyDown, keys, func(hook.Event) { fn() })
	return nil
}

func (gohookBackend) Run(ctx context.Context) error {
	events := hook.Start()
	done := hook.Process(events)
	select {
	case <-ctx.Done():
		hook.End()
	case <-done:
	}
	return nil
}
