// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/shiftwatch/internal/adapters/repository"
	service "github.com/okian/shiftwatch/internal/app"
	"github.com/okian/shiftwatch/internal/demodata"
	"github.com/okian/shiftwatch/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// IngestEvent records one observation idempotently. The returned flag
	// reports whether the event collapsed onto an already stored one.
	IngestEvent(ctx context.Context, e model.Event) (model.Event, bool, error)

	// ListEvents returns stored events, most recent first.
	ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error)

	// Roster operations.
	RegisterWorker(ctx context.Context, w model.Worker) error
	RegisterWorkstation(ctx context.Context, st model.Workstation) error
	Workers(ctx context.Context) ([]model.Worker, error)
	Workstations(ctx context.Context) ([]model.Workstation, error)

	// Metric derivation.
	WorkerMetrics(ctx context.Context) ([]model.WorkerMetrics, error)
	WorkerMetricsByID(ctx context.Context, workerID string) (model.WorkerMetrics, error)
	WorkstationMetrics(ctx context.Context) ([]model.WorkstationMetrics, error)
	WorkstationMetricsByID(ctx context.Context, stationID string) (model.WorkstationMetrics, error)
	FactoryMetrics(ctx context.Context) (model.FactoryMetrics, error)

	// Seed loads the demo roster and one simulated shift of events.
	Seed(ctx context.Context, clear bool) (demodata.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler         *RootHandler
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	eventsHandler       *EventsHandler
	workersHandler      *WorkersHandler
	workstationsHandler *WorkstationsHandler
	metricsHandler      *MetricsHandler
	seedHandler         *SeedHandler
	reportHandler       *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		rootHandler:         NewRootHandler(),
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		eventsHandler:       NewEventsHandler(deps),
		workersHandler:      NewWorkersHandler(deps),
		workstationsHandler: NewWorkstationsHandler(deps),
		metricsHandler:      NewMetricsHandler(deps),
		seedHandler:         NewSeedHandler(deps),
		reportHandler:       NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandlePrometheus)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/events", MetricsMiddleware(s.eventsHandler.HandleEvents, "events"))
	mux.HandleFunc("/api/workers", MetricsMiddleware(s.workersHandler.HandleWorkers, "workers"))
	mux.HandleFunc("/api/workstations", MetricsMiddleware(s.workstationsHandler.HandleWorkstations, "workstations"))
	mux.HandleFunc("/api/metrics/workers", MetricsMiddleware(s.metricsHandler.HandleWorkerMetrics, "metrics_workers"))
	mux.HandleFunc("/api/metrics/workers/", MetricsMiddleware(s.metricsHandler.HandleWorkerMetricsByID, "metrics_worker"))
	mux.HandleFunc("/api/metrics/workstations", MetricsMiddleware(s.metricsHandler.HandleWorkstationMetrics, "metrics_workstations"))
	mux.HandleFunc("/api/metrics/workstations/", MetricsMiddleware(s.metricsHandler.HandleWorkstationMetricsByID, "metrics_workstation"))
	mux.HandleFunc("/api/metrics/factory", MetricsMiddleware(s.metricsHandler.HandleFactoryMetrics, "metrics_factory"))
	mux.HandleFunc("/api/seed", MetricsMiddleware(s.seedHandler.HandleSeed, "seed"))
	mux.HandleFunc("/api/reports/factory.xlsx", MetricsMiddleware(s.reportHandler.HandleFactoryReport, "report_factory"))
	mux.HandleFunc("/", s.rootHandler.HandleRoot)
}

// eventRequest mirrors the wire schema for POST /api/events.
type eventRequest struct {
	Timestamp     string  `json:"timestamp"`
	WorkerID      string  `json:"worker_id"`
	WorkstationID string  `json:"workstation_id"`
	EventType     string  `json:"event_type"`
	Confidence    float64 `json:"confidence"`
	Count         *int    `json:"count"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.Timestamp) == "":
		return errors.New("missing timestamp")
	case strings.TrimSpace(e.WorkerID) == "":
		return errors.New("missing worker_id")
	case strings.TrimSpace(e.WorkstationID) == "":
		return errors.New("missing workstation_id")
	case strings.TrimSpace(e.EventType) == "":
		return errors.New("missing event_type")
	}
	if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
		return errors.New("invalid timestamp; must be RFC3339")
	}
	return nil
}

// toModel converts the request into a domain event. An omitted count
// defaults to 1, matching sensors that emit bare state changes.
func (e eventRequest) toModel() model.Event {
	ts, _ := time.Parse(time.RFC3339, e.Timestamp)
	count := 1
	if e.Count != nil {
		count = *e.Count
	}
	return model.Event{
		Timestamp:     ts,
		WorkerID:      e.WorkerID,
		WorkstationID: e.WorkstationID,
		Type:          model.EventType(e.EventType),
		Confidence:    e.Confidence,
		Count:         count,
	}
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

// writeDomainError translates service-layer errors into HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
