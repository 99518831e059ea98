package server

import (
	"github.com/GriffinCanCode/deathwatch/internal/app"
	"github.com/GriffinCanCode/deathwatch/internal/history"
	"github.com/GriffinCanCode/deathwatch/internal/recorder"
)

// Message is the envelope every WebSocket message carries.
type Message struct {
	Type string `json:"type"`
}

// SnapshotMessage is sent once when a client connects.
type SnapshotMessage struct {
	Type      string              `json:"type"`
	Recorders []recorder.Recorder `json:"recorders"`
	Status    app.Status          `json:"status"`
}

// HistoryMessage pushes one new detection.
type HistoryMessage struct {
	Type  string        `json:"type"`
	Entry history.Entry `json:"entry"`
}

// CommandMessage is a counter action sent by a client.
type CommandMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type moveRequest struct {
	To *int `json:"to"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
