// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// WorkstationsHandler handles workstation roster requests.
type WorkstationsHandler struct {
	deps Dependencies
}

// NewWorkstationsHandler creates a new workstations handler.
func NewWorkstationsHandler(deps Dependencies) *WorkstationsHandler {
	return &WorkstationsHandler{deps: deps}
}

// HandleWorkstations dispatches /api/workstations by method.
func (h *WorkstationsHandler) HandleWorkstations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleRegister(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleList handles GET /api/workstations requests.
func (h *WorkstationsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	stations, err := h.deps.Workstations(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// handleRegister handles POST /api/workstations requests.
func (h *WorkstationsHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_workstation"

	var station model.Workstation
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	station.StationID = strings.TrimSpace(station.StationID)
	station.Name = strings.TrimSpace(station.Name)
	station.StationType = strings.TrimSpace(station.StationType)

	if err := h.deps.RegisterWorkstation(r.Context(), station); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}
