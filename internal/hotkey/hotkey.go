// Package hotkey turns a global key combination into manual increment
// requests.
package hotkey

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
)

// Modifier is a key that must be held with the main key.
type Modifier string

const (
	Shift Modifier = "shift"
	Ctrl  Modifier = "ctrl"
	Alt   Modifier = "alt"
	Cmd   Modifier = "cmd"
)

var modifiers = []Modifier{Shift, Ctrl, Alt, Cmd}

// Backend registers global key combinations with the OS.
type Backend interface {
	Register(mods []Modifier, key string, fn func()) error
	// Run blocks delivering key events until ctx is done.
	Run(ctx context.Context) error
}

// Combo is a parsed key combination.
type Combo struct {
	Mods []Modifier
	Key  string
}

func (c Combo) String() string {
	parts := make([]string, 0, len(c.Mods)+1)
	for _, m := range c.Mods {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, c.Key), "+")
}

// ParseCombo reads keys such as ["shift", "+"]: every element but the last
// must be a modifier and the last one is the key.
func ParseCombo(keys []string) (Combo, error) {
	var cleaned []string
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		return Combo{}, apperrors.New(apperrors.ConfigInvalid, "hotkey has no key")
	}

	c := Combo{Key: cleaned[len(cleaned)-1]}
	for _, k := range cleaned[:len(cleaned)-1] {
		m := Modifier(k)
		if k == "control" {
			m = Ctrl
		}
		if !slices.Contains(modifiers, m) {
			return Combo{}, apperrors.Newf(apperrors.ConfigInvalid, "unknown hotkey modifier %q", k)
		}
		if !slices.Contains(c.Mods, m) {
			c.Mods = append(c.Mods, m)
		}
	}
	return c, nil
}

// Listener reports every press of one combination on Presses.
type Listener struct {
	backend Backend
	combo   Combo
	presses chan struct{}
}

// New creates a listener for combo.
func New(backend Backend, combo Combo) *Listener {
	return &Listener{backend: backend, combo: combo, presses: make(chan struct{}, pressBuffer)}
}

// Presses returns the channel a value is sent on for each press. Presses
// arriving faster than they are consumed are dropped.
func (l *Listener) Presses() <-chan struct{} {
	return l.presses
}

// Run registers the combination and blocks until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	err := l.backend.Register(l.combo.Mods, l.combo.Key, func() {
		select {
		case l.presses <- struct{}{}:
		default:
			slog.Debug("hotkey press dropped")
		}
	})
	if err != nil {
		return err
	}
	slog.Info("hotkey registered", "combo", l.combo.String())
	return l.backend.Run(ctx)
}

const pressBuffer = 8
