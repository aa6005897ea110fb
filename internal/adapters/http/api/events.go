// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ericggul/moodscape/internal/app"
)

// EventsHandler handles participant and operator event requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

type joinRequest struct {
	UserID string `json:"userId"`
	TS     string `json:"ts"`
}

type renameRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	TS     string `json:"ts"`
}

type voiceRequest struct {
	UserID  string  `json:"userId"`
	Text    string  `json:"text"`
	Emotion string  `json:"emotion"`
	Score   float64 `json:"score"`
	TS      string  `json:"ts"`
}

type leaveRequest struct {
	UserID string `json:"userId"`
}

type heartbeatRequest struct {
	DeviceID string `json:"deviceId"`
	TS       string `json:"ts"`
}

type resetRequest struct {
	Source string `json:"source"`
}

// parseTS accepts an optional RFC3339 timestamp; missing means "now".
func parseTS(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Now(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid ts; must be RFC3339")
	}
	return ts, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// HandleJoin handles POST /events/join requests.
func (h *EventsHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	const op = "api.join"
	var req joinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing userId")))
		return
	}
	ts, err := parseTS(req.TS)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.HandleJoin(r.Context(), req.UserID, ts)
	writeJSON(w, http.StatusOK, ackResponse{Status: "joined"})
}

// HandleRename handles POST /events/rename requests.
func (h *EventsHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	const op = "api.rename"
	var req renameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing userId or name")))
		return
	}
	ts, err := parseTS(req.TS)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.HandleRename(r.Context(), req.UserID, req.Name, ts)
	writeJSON(w, http.StatusOK, ackResponse{Status: "renamed"})
}

// HandleVoice handles POST /events/voice requests. The decision round itself
// runs asynchronously after the per-user quiet interval, so a 202 only means
// the input was recorded.
func (h *EventsHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	const op = "api.voice"
	var req voiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing userId")))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing text")))
		return
	}
	ts, err := parseTS(req.TS)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.HandleVoice(r.Context(), req.UserID, app.VoicePayload{
		Text:    req.Text,
		Emotion: req.Emotion,
		Score:   req.Score,
		TS:      ts,
	})
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleLeave handles POST /events/leave requests.
func (h *EventsHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	const op = "api.leave"
	var req leaveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing userId")))
		return
	}

	h.deps.HandleLeave(r.Context(), req.UserID)
	writeJSON(w, http.StatusOK, ackResponse{Status: "left"})
}

// HandleHeartbeat handles POST /events/heartbeat requests from devices.
func (h *EventsHandler) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	const op = "api.heartbeat"
	var req heartbeatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing deviceId")))
		return
	}
	ts, err := parseTS(req.TS)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.HandleDeviceHeartbeat(r.Context(), req.DeviceID, ts)
	writeJSON(w, http.StatusOK, ackResponse{Status: "ok"})
}

// HandleReset handles POST /events/reset requests.
func (h *EventsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	if strings.TrimSpace(req.Source) == "" {
		req.Source = "api"
	}

	event := h.deps.HandleReset(r.Context(), req.Source)
	writeJSON(w, http.StatusOK, event)
}
