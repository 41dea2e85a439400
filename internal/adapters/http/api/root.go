// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// RootHandler answers the service index with a short endpoint directory.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests. Unknown paths fall through to 404.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": "shiftwatch",
		"endpoints": map[string]string{
			"events":              "/api/events",
			"workers":             "/api/workers",
			"workstations":        "/api/workstations",
			"worker_metrics":      "/api/metrics/workers",
			"workstation_metrics": "/api/metrics/workstations",
			"factory_metrics":     "/api/metrics/factory",
			"factory_report":      "/api/reports/factory.xlsx",
			"seed":                "/api/seed",
			"health":              "/healthz",
			"stats":               "/stats",
		},
	})
}
