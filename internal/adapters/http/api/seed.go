// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// SeedHandler handles demo data seeding requests.
type SeedHandler struct {
	deps Dependencies
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(deps Dependencies) *SeedHandler {
	return &SeedHandler{deps: deps}
}

// HandleSeed handles POST /api/seed requests. The clear_existing query
// parameter (default true) wipes stored data before seeding.
func (h *SeedHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.seed"

	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	clear := true
	if raw := r.URL.Query().Get("clear_existing"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		clear = parsed
	}

	res, err := h.deps.Seed(r.Context(), clear)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
