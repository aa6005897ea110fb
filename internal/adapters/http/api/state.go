// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/ericggul/moodscape/internal/adapters/state"
)

// StateHandler serves read-only views over the orchestrator state.
type StateHandler struct {
	deps Dependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps Dependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

// HandleGetState handles GET /state requests. Displays poll this on connect
// to catch up before the socket stream takes over.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Snapshot())
}

// HandleGetDevices handles GET /devices requests. Status is derived at read
// time from the last heartbeat, so a stalled device shows up without any
// background sweeper.
func (h *StateHandler) HandleGetDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.DeviceStatus())
}

// HandleGetUsers handles GET /users requests.
func (h *StateHandler) HandleGetUsers(w http.ResponseWriter, r *http.Request) {
	users := h.deps.Users()
	if users == nil {
		users = []state.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
