// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// MetricsHandler handles derived-metric requests.
type MetricsHandler struct {
	deps Dependencies
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(deps Dependencies) *MetricsHandler {
	return &MetricsHandler{deps: deps}
}

// HandleWorkerMetrics handles GET /api/metrics/workers requests.
func (h *MetricsHandler) HandleWorkerMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	metrics, err := h.deps.WorkerMetrics(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// HandleWorkerMetricsByID handles GET /api/metrics/workers/{worker_id} requests.
func (h *MetricsHandler) HandleWorkerMetricsByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	const op = "api.worker_metrics"
	workerID, ok := pathParam(r.URL.Path, "/api/metrics/workers/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	metrics, err := h.deps.WorkerMetricsByID(r.Context(), workerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// HandleWorkstationMetrics handles GET /api/metrics/workstations requests.
func (h *MetricsHandler) HandleWorkstationMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	metrics, err := h.deps.WorkstationMetrics(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// HandleWorkstationMetricsByID handles GET /api/metrics/workstations/{station_id} requests.
func (h *MetricsHandler) HandleWorkstationMetricsByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	const op = "api.workstation_metrics"
	stationID, ok := pathParam(r.URL.Path, "/api/metrics/workstations/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	metrics, err := h.deps.WorkstationMetricsByID(r.Context(), stationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// HandleFactoryMetrics handles GET /api/metrics/factory requests.
func (h *MetricsHandler) HandleFactoryMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	metrics, err := h.deps.FactoryMetrics(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// pathParam extracts the single path parameter after prefix.
func pathParam(path, prefix string) (string, bool) {
	param := strings.TrimPrefix(path, prefix)
	if param == "" || strings.Contains(param, "/") {
		return "", false
	}
	return param, true
}
