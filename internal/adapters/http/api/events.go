// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/shiftwatch/internal/adapters/repository"
)

// EventsHandler handles event ingestion and listing.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleEvents dispatches /api/events by method.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePostEvent(w, r)
	case http.MethodGet:
		h.handleListEvents(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handlePostEvent handles POST /api/events requests. A brand new event is
// answered with 201 and the stored record; a replay of an already stored
// deduplication key is answered with 200 and the original record.
func (h *EventsHandler) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, duplicate, err := h.deps.IngestEvent(r.Context(), req.toModel())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, stored)
}

// handleListEvents handles GET /api/events requests with optional
// worker_id, workstation_id, offset and limit query parameters.
func (h *EventsHandler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"

	q := r.URL.Query()
	filter := repository.EventFilter{
		WorkerID:      q.Get("worker_id"),
		WorkstationID: q.Get("workstation_id"),
	}

	var err error
	if filter.Offset, err = queryInt(q.Get("offset"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if filter.Limit, err = queryInt(q.Get("limit"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	events, err := h.deps.ListEvents(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid query value %q; must be a non-negative integer", raw)
	}
	return n, nil
}
