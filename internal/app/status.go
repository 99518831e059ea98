package app

import (
	"encoding/json"
	"fmt"

	"github.com/GriffinCanCode/deathwatch/internal/recorder"
	"github.com/GriffinCanCode/deathwatch/internal/worker"
)

// OCRState is the lifecycle of the detection worker.
type OCRState int

const (
	Stopped OCRState = iota
	Starting
	Started
)

func (s OCRState) String() string {
	switch s {
	case Starting:
		return "starting"
	case Started:
		return "started"
	default:
		return "stopped"
	}
}

// MarshalJSON encodes the state by name.
func (s OCRState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name.
func (s *OCRState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for _, cand := range []OCRState{Stopped, Starting, Started} {
		if cand.String() == name {
			*s = cand
			return nil
		}
	}
	return fmt.Errorf("unknown ocr state %q", name)
}

// Status is what the UI shows about detection.
type Status struct {
	OCR       OCRState      `json:"ocr"`
	Action    worker.Action `json:"action"`
	LastError string        `json:"last_error,omitempty"`
}

// UpdateKind tags an Update.
type UpdateKind string

const (
	UpdateRecorders UpdateKind = "recorders"
	UpdateStatus    UpdateKind = "status"
)

// Update is pushed to subscribers after every change.
type Update struct {
	Kind      UpdateKind          `json:"type"`
	Recorders []recorder.Recorder `json:"recorders,omitempty"`
	Status    *Status             `json:"status,omitempty"`
}
