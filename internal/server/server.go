// Package server provides HTTP and WebSocket handlers
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/deathwatch/internal/app"
	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/history"
	"github.com/GriffinCanCode/deathwatch/internal/recorder"
	"github.com/GriffinCanCode/deathwatch/internal/trace"
)

// Controller is the application surface the server drives.
type Controller interface {
	Recorders() []recorder.Recorder
	Status() app.Status
	History(n int) []history.Entry
	Updates() <-chan app.Update
	HistoryEvents() <-chan history.Entry

	AddRecorder(ctx context.Context, title string) (recorder.Recorder, error)
	IncrementRecorder(ctx context.Context, id string) (recorder.Recorder, error)
	DecrementRecorder(ctx context.Context, id string) (recorder.Recorder, error)
	ResetRecorder(ctx context.Context, id string) (recorder.Recorder, error)
	ToggleRecorder(ctx context.Context, id string) (recorder.Recorder, error)
	RenameRecorder(ctx context.Context, id, title string) (recorder.Recorder, error)
	DeleteRecorder(ctx context.Context, id string) error
	MoveRecorder(ctx context.Context, id string, to int) ([]recorder.Recorder, error)
	SetOCREnabled(ctx context.Context, enabled bool) (app.Status, error)
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	ctrl       Controller
	mu         sync.RWMutex
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter
}

// New creates a server and starts broadcasting controller updates to
// WebSocket clients until ctx is done.
func New(ctx context.Context, ctrl Controller) *Server {
	s := &Server{
		ctrl:       ctrl,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
	}

	go s.broadcastUpdates(ctx)
	go s.broadcastHistory(ctx)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/recorders", s.handleListRecorders)
	mux.HandleFunc("POST /api/recorders", s.handleAddRecorder)
	mux.HandleFunc("PUT /api/recorders/{id}", s.handleRenameRecorder)
	mux.HandleFunc("DELETE /api/recorders/{id}", s.handleDeleteRecorder)
	mux.HandleFunc("POST /api/recorders/{id}/move", s.handleMoveRecorder)
	mux.HandleFunc("POST /api/recorders/{id}/{action}", s.handleRecorderAction)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/ocr/{state}", s.handleOCR)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListRecorders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Recorders())
}

func (s *Server) handleAddRecorder(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.ctrl.AddRecorder(r.Context(), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleRenameRecorder(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.ctrl.RenameRecorder(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecorder(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.DeleteRecorder(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveRecorder(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.To == nil {
		writeError(w, r, apperrors.New(apperrors.InvalidArgument, `"to" is required`))
		return
	}
	order, err := s.ctrl.MoveRecorder(r.Context(), r.PathValue("id"), *req.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleRecorderAction(w http.ResponseWriter, r *http.Request) {
	rec, err := s.apply(r.Context(), r.PathValue("action"), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// apply runs a counter action by name; shared by REST and WebSocket.
func (s *Server) apply(ctx context.Context, action, id string) (recorder.Recorder, error) {
	switch action {
	case "increment":
		return s.ctrl.IncrementRecorder(ctx, id)
	case "decrement":
		return s.ctrl.DecrementRecorder(ctx, id)
	case "reset":
		return s.ctrl.ResetRecorder(ctx, id)
	case "toggle":
		return s.ctrl.ToggleRecorder(ctx, id)
	default:
		return recorder.Recorder{}, apperrors.Newf(apperrors.NotFound, "unknown action %q", action)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	var enabled bool
	switch r.PathValue("state") {
	case "enable":
		enabled = true
	case "disable":
	default:
		writeError(w, r, apperrors.Newf(apperrors.NotFound, "unknown ocr state %q", r.PathValue("state")))
		return
	}

	st, err := s.ctrl.SetOCREnabled(r.Context(), enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	trace.Logger(r.Context()).Info("ocr state changed", "enabled", enabled)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, apperrors.Newf(apperrors.InvalidArgument, "invalid limit %q", v))
			return
		}
		limit = min(n, MaxHistoryLimit)
	}
	writeJSON(w, http.StatusOK, s.ctrl.History(limit))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)

	// Snapshot before registering so it always precedes broadcasts.
	snap := SnapshotMessage{Type: "snapshot", Recorders: s.ctrl.Recorders(), Status: s.ctrl.Status()}
	if err := wsjson.Write(baseCtx, conn, snap); err != nil {
		log.Debug("websocket snapshot failed", "error", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	log.Info("websocket connected", "remote", r.RemoteAddr)

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, ErrorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		var cmd CommandMessage
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}
		s.handleCommand(baseCtx, conn, cmd)
	}
}

func (s *Server) handleCommand(ctx context.Context, conn *websocket.Conn, cmd CommandMessage) {
	ctx, span := trace.StartSpan(ctx, "ws_command")
	defer span.End()
	span.SetAttr("type", cmd.Type)

	if cmd.Type == "ping" {
		_ = wsjson.Write(ctx, conn, Message{Type: "pong"})
		return
	}
	// Success is visible through the recorders broadcast.
	if _, err := s.apply(ctx, cmd.Type, cmd.ID); err != nil {
		span.SetAttr("error", err.Error())
		_ = wsjson.Write(ctx, conn, ErrorMessage{Type: "error", Message: err.Error()})
	}
}

func (s *Server) broadcastUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-s.ctrl.Updates():
			s.broadcast(u)
		}
	}
}

func (s *Server) broadcastHistory(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.ctrl.HistoryEvents():
			s.broadcast(HistoryMessage{Type: "history", Entry: e})
		}
	}
}

func (s *Server) broadcast(msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
			defer cancel()
			_ = wsjson.Write(ctx, c, msg)
		}(conn)
	}
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, apperrors.Wrap(err, apperrors.InvalidArgument, "invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := httpStatus(code)
	if status >= http.StatusInternalServerError {
		trace.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code.String()})
}

func httpStatus(c apperrors.Code) int {
	switch c {
	case apperrors.InvalidArgument:
		return http.StatusBadRequest
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.Unavailable, apperrors.CaptureNoMonitor, apperrors.OCRInitFailed:
		return http.StatusServiceUnavailable
	case apperrors.Timeout:
		return http.StatusGatewayTimeout
	case apperrors.Cancelled:
		return http.StatusRequestTimeout
	case apperrors.ConfigInvalid, apperrors.ConfigMissing:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
