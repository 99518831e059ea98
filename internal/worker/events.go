package worker

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action is what the detection loop is currently looking for.
type Action int

const (
	SearchingDeath Action = iota
	SearchingBossName
	EndingAction
)

func (a Action) String() string {
	switch a {
	case SearchingDeath:
		return "searching_death"
	case SearchingBossName:
		return "searching_boss_name"
	case EndingAction:
		return "ending_action"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the action by name.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an action name.
func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, cand := range []Action{SearchingDeath, SearchingBossName, EndingAction} {
		if cand.String() == s {
			*a = cand
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", s)
}

// EventKind tags an Event.
type EventKind int

const (
	// Started is sent once the loop has validated its setup.
	Started EventKind = iota
	StateChanged
	DeathDetected
	BossNamesFound
)

// Event is sent from the detection loop to its owner.
type Event struct {
	Kind   EventKind
	Action Action   // StateChanged
	Names  []string // BossNamesFound, may be empty
	At     time.Time
}
