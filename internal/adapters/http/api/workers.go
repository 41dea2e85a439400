// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// WorkersHandler handles worker roster requests.
type WorkersHandler struct {
	deps Dependencies
}

// NewWorkersHandler creates a new workers handler.
func NewWorkersHandler(deps Dependencies) *WorkersHandler {
	return &WorkersHandler{deps: deps}
}

// HandleWorkers dispatches /api/workers by method.
func (h *WorkersHandler) HandleWorkers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleRegister(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleList handles GET /api/workers requests.
func (h *WorkersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	workers, err := h.deps.Workers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

// handleRegister handles POST /api/workers requests. Re-registering an
// existing worker id is answered with 409.
func (h *WorkersHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_worker"

	var worker model.Worker
	if err := json.NewDecoder(r.Body).Decode(&worker); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	worker.WorkerID = strings.TrimSpace(worker.WorkerID)
	worker.Name = strings.TrimSpace(worker.Name)

	if err := h.deps.RegisterWorker(r.Context(), worker); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, worker)
}
