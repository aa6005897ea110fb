// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ericggul/moodscape/internal/adapters/state"
	"github.com/ericggul/moodscape/internal/app"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the orchestrator implementation.
type Dependencies interface {
	HandleJoin(ctx context.Context, userID string, ts time.Time)
	HandleRename(ctx context.Context, userID, name string, ts time.Time)
	HandleVoice(ctx context.Context, userID string, payload app.VoicePayload)
	HandleLeave(ctx context.Context, userID string)
	HandleDeviceHeartbeat(ctx context.Context, deviceID string, ts time.Time)
	HandleReset(ctx context.Context, source string) app.SoftResetEvent

	Snapshot() app.Snapshot
	DeviceStatus() map[string]string
	Users() []state.User
}

// Server wires HTTP routes for the orchestrator API.
type Server struct {
	healthHandler *HealthHandler
	eventsHandler *EventsHandler
	stateHandler  *StateHandler
	wsHandler     http.Handler
}

// NewServer creates a new API server with all handlers. wsHandler serves the
// realtime display socket and may be nil when the fabric is disabled.
func NewServer(deps Dependencies, wsHandler http.Handler) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		eventsHandler: NewEventsHandler(deps),
		stateHandler:  NewStateHandler(deps),
		wsHandler:     wsHandler,
	}
}

// Register attaches all HTTP routes to the router.
func (s *Server) Register(ctx context.Context, r *mux.Router) {
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)

	r.HandleFunc("/events/join", MetricsMiddleware(s.eventsHandler.HandleJoin, "join")).Methods(http.MethodPost)
	r.HandleFunc("/events/rename", MetricsMiddleware(s.eventsHandler.HandleRename, "rename")).Methods(http.MethodPost)
	r.HandleFunc("/events/voice", MetricsMiddleware(s.eventsHandler.HandleVoice, "voice")).Methods(http.MethodPost)
	r.HandleFunc("/events/leave", MetricsMiddleware(s.eventsHandler.HandleLeave, "leave")).Methods(http.MethodPost)
	r.HandleFunc("/events/heartbeat", MetricsMiddleware(s.eventsHandler.HandleHeartbeat, "heartbeat")).Methods(http.MethodPost)
	r.HandleFunc("/events/reset", MetricsMiddleware(s.eventsHandler.HandleReset, "reset")).Methods(http.MethodPost)

	r.HandleFunc("/state", MetricsMiddleware(s.stateHandler.HandleGetState, "state")).Methods(http.MethodGet)
	r.HandleFunc("/devices", MetricsMiddleware(s.stateHandler.HandleGetDevices, "devices")).Methods(http.MethodGet)
	r.HandleFunc("/users", MetricsMiddleware(s.stateHandler.HandleGetUsers, "users")).Methods(http.MethodGet)

	if s.wsHandler != nil {
		r.Handle("/ws", s.wsHandler)
	}
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
