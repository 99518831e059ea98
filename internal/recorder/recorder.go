// Package recorder models the death counters and the aggregation rules that
// attribute each detected death to a boss.
package recorder

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes per-boss counters from the two global ones.
type Kind int

const (
	Classic Kind = iota
	GlobalDeaths
	GlobalBosses
)

var kindNames = map[Kind]string{
	Classic:      "classic",
	GlobalDeaths: "global_deaths",
	GlobalBosses: "global_bosses",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for kind, name := range kindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown recorder kind %q", s)
}

const (
	globalDeathsTitle = "Total deaths"
	globalBossesTitle = "Bosses encountered"
)

// Recorder is a named counter. Inactive recorders ignore ordinary
// increments; forced increments always apply.
type Recorder struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Counter uint64 `json:"counter"`
	Active  bool   `json:"active"`
	Kind    Kind   `json:"kind"`
}

// New creates an active classic recorder.
func New(title string) *Recorder {
	return &Recorder{ID: uuid.NewString(), Title: title, Active: true, Kind: Classic}
}

func newGlobal(kind Kind) *Recorder {
	title := globalDeathsTitle
	if kind == GlobalBosses {
		title = globalBossesTitle
	}
	return &Recorder{ID: uuid.NewString(), Title: title, Active: true, Kind: kind}
}

// IsGlobal reports whether r is one of the two global counters.
func (r *Recorder) IsGlobal() bool {
	return r.Kind != Classic
}

// Increment adds one if the recorder is active.
func (r *Recorder) Increment() {
	if r.Active {
		r.Counter++
	}
}

// ForceIncrement adds one regardless of the active flag.
func (r *Recorder) ForceIncrement() {
	r.Counter++
}

// Decrement removes one, never going below zero.
func (r *Recorder) Decrement() {
	if r.Counter > 0 {
		r.Counter--
	}
}

// Reset sets the counter to zero.
func (r *Recorder) Reset() {
	r.Counter = 0
}

// Toggle flips the active flag.
func (r *Recorder) Toggle() {
	r.Active = !r.Active
}
