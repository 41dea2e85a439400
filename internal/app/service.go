// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/shiftwatch/internal/adapters/repository"
	"github.com/okian/shiftwatch/internal/demodata"
	"github.com/okian/shiftwatch/internal/domain/engine"
	"github.com/okian/shiftwatch/internal/domain/model"
	"github.com/okian/shiftwatch/pkg/logger"
	"github.com/okian/shiftwatch/pkg/metrics"
)

// Default paging bounds for event listings.
const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Service implements the API dependencies for the productivity system:
// idempotent event ingestion in front of the store and on-demand metric
// derivation over it.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	// Configuration
	defaultListLimit int
	maxListLimit     int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListLimits sets the default and maximum page sizes for event listings.
func WithListLimits(def, max int) Option {
	return func(s *Service) {
		if def > 0 {
			s.defaultListLimit = def
		}
		if max > 0 {
			s.maxListLimit = max
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultListLimit: defaultListLimit,
		maxListLimit:     maxListLimit,
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	s.started = true
	s.logger.Info(ctx, "productivity service started",
		logger.Int("defaultListLimit", s.defaultListLimit),
		logger.Int("maxListLimit", s.maxListLimit),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "productivity service stopped")
}

// IngestEvent records one observation. Ingestion is idempotent: an event
// whose (timestamp, worker, workstation, type) key is already stored is
// acknowledged with the previously stored record and duplicate set to true,
// regardless of any differing confidence or count. Duplicate detection runs
// before referential checks, so a replayed event never fails validation.
func (s *Service) IngestEvent(ctx context.Context, e model.Event) (model.Event, bool, error) {
	const op = "service.IngestEvent"

	if err := validateEvent(e); err != nil {
		metrics.RecordEventRejected()
		return model.Event{}, false, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.store.FindEventByKey(ctx, e.Key())
	if err == nil {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event acknowledged",
			logger.String("eventID", existing.ID),
			logger.String("workerID", e.WorkerID),
		)
		return existing, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Event{}, false, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.store.WorkerExists(ctx, e.WorkerID)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		metrics.RecordEventRejected()
		return model.Event{}, false, fmt.Errorf("%s: worker %s: %w", op, e.WorkerID, repository.ErrNotFound)
	}

	ok, err = s.store.WorkstationExists(ctx, e.WorkstationID)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		metrics.RecordEventRejected()
		return model.Event{}, false, fmt.Errorf("%s: workstation %s: %w", op, e.WorkstationID, repository.ErrNotFound)
	}

	e.ID = uuid.NewString()
	e.IngestedAt = time.Now().UTC()

	stored, created, err := s.store.InsertEvent(ctx, e)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		// Lost a race with a concurrent identical event.
		metrics.RecordEventDuplicate()
		return stored, true, nil
	}

	metrics.RecordEventIngested()
	s.logger.Debug(ctx, "event ingested",
		logger.String("eventID", stored.ID),
		logger.String("workerID", stored.WorkerID),
		logger.String("workstationID", stored.WorkstationID),
		logger.String("type", string(stored.Type)),
	)

	return stored, false, nil
}

func validateEvent(e model.Event) error {
	switch {
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrValidation)
	case e.WorkerID == "":
		return fmt.Errorf("%w: missing worker_id", ErrValidation)
	case e.WorkstationID == "":
		return fmt.Errorf("%w: missing workstation_id", ErrValidation)
	case !e.Type.Valid():
		return fmt.Errorf("%w: unknown event_type %q", ErrValidation, e.Type)
	case e.Confidence < 0 || e.Confidence > 1:
		return fmt.Errorf("%w: confidence %v out of range", ErrValidation, e.Confidence)
	case e.Count < 0:
		return fmt.Errorf("%w: negative count %d", ErrValidation, e.Count)
	}
	return nil
}

// ListEvents returns stored events, most recent first. A non-positive limit
// falls back to the configured default and oversized limits are capped.
func (s *Service) ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	const op = "service.ListEvents"

	if f.Limit <= 0 {
		f.Limit = s.defaultListLimit
	}
	if f.Limit > s.maxListLimit {
		f.Limit = s.maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	events, err := s.store.ListEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// RegisterWorker adds a worker to the roster.
func (s *Service) RegisterWorker(ctx context.Context, w model.Worker) error {
	const op = "service.RegisterWorker"

	if w.WorkerID == "" || w.Name == "" {
		return fmt.Errorf("%s: %w: worker_id and name are required", op, ErrValidation)
	}
	if err := s.store.AddWorker(ctx, w); err != nil {
		return fmt.Errorf("%s: worker %s: %w", op, w.WorkerID, err)
	}
	return nil
}

// RegisterWorkstation adds a workstation to the roster.
func (s *Service) RegisterWorkstation(ctx context.Context, st model.Workstation) error {
	const op = "service.RegisterWorkstation"

	if st.StationID == "" || st.Name == "" {
		return fmt.Errorf("%s: %w: station_id and name are required", op, ErrValidation)
	}
	if err := s.store.AddWorkstation(ctx, st); err != nil {
		return fmt.Errorf("%s: workstation %s: %w", op, st.StationID, err)
	}
	return nil
}

// Workers returns the registered workers in registration order.
func (s *Service) Workers(ctx context.Context) ([]model.Worker, error) {
	return s.store.Workers(ctx)
}

// Workstations returns the registered workstations in registration order.
func (s *Service) Workstations(ctx context.Context) ([]model.Workstation, error) {
	return s.store.Workstations(ctx)
}

// WorkerMetrics derives metrics for every registered worker, including
// those without any events.
func (s *Service) WorkerMetrics(ctx context.Context) ([]model.WorkerMetrics, error) {
	const op = "service.WorkerMetrics"

	start := time.Now()
	defer func() { metrics.ObserveDerivation("worker", time.Since(start).Seconds()) }()

	workers, err := s.store.Workers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.WorkerMetrics, 0, len(workers))
	for _, w := range workers {
		m, err := s.workerMetrics(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// WorkerMetricsByID derives metrics for one worker. Unknown workers yield
// repository.ErrNotFound.
func (s *Service) WorkerMetricsByID(ctx context.Context, workerID string) (model.WorkerMetrics, error) {
	const op = "service.WorkerMetricsByID"

	start := time.Now()
	defer func() { metrics.ObserveDerivation("worker", time.Since(start).Seconds()) }()

	workers, err := s.store.Workers(ctx)
	if err != nil {
		return model.WorkerMetrics{}, fmt.Errorf("%s: %w", op, err)
	}
	for _, w := range workers {
		if w.WorkerID == workerID {
			m, err := s.workerMetrics(ctx, w)
			if err != nil {
				return model.WorkerMetrics{}, fmt.Errorf("%s: %w", op, err)
			}
			return m, nil
		}
	}
	return model.WorkerMetrics{}, fmt.Errorf("%s: worker %s: %w", op, workerID, repository.ErrNotFound)
}

func (s *Service) workerMetrics(ctx context.Context, w model.Worker) (model.WorkerMetrics, error) {
	events, err := s.store.EventsByWorker(ctx, w.WorkerID)
	if err != nil {
		return model.WorkerMetrics{}, err
	}

	tally := engine.TallyWorker(events)
	if tally.Anomalies > 0 {
		s.logger.Warn(ctx, "out-of-order intervals in worker timeline",
			logger.String("workerID", w.WorkerID),
			logger.Int("count", tally.Anomalies),
		)
	}
	return tally.Metrics(w), nil
}

// WorkstationMetrics derives metrics for every registered workstation.
func (s *Service) WorkstationMetrics(ctx context.Context) ([]model.WorkstationMetrics, error) {
	const op = "service.WorkstationMetrics"

	start := time.Now()
	defer func() { metrics.ObserveDerivation("workstation", time.Since(start).Seconds()) }()

	stations, err := s.store.Workstations(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.WorkstationMetrics, 0, len(stations))
	for _, st := range stations {
		m, err := s.stationMetrics(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// WorkstationMetricsByID derives metrics for one workstation. Unknown
// stations yield repository.ErrNotFound.
func (s *Service) WorkstationMetricsByID(ctx context.Context, stationID string) (model.WorkstationMetrics, error) {
	const op = "service.WorkstationMetricsByID"

	start := time.Now()
	defer func() { metrics.ObserveDerivation("workstation", time.Since(start).Seconds()) }()

	stations, err := s.store.Workstations(ctx)
	if err != nil {
		return model.WorkstationMetrics{}, fmt.Errorf("%s: %w", op, err)
	}
	for _, st := range stations {
		if st.StationID == stationID {
			m, err := s.stationMetrics(ctx, st)
			if err != nil {
				return model.WorkstationMetrics{}, fmt.Errorf("%s: %w", op, err)
			}
			return m, nil
		}
	}
	return model.WorkstationMetrics{}, fmt.Errorf("%s: workstation %s: %w", op, stationID, repository.ErrNotFound)
}

func (s *Service) stationMetrics(ctx context.Context, st model.Workstation) (model.WorkstationMetrics, error) {
	events, err := s.store.EventsByStation(ctx, st.StationID)
	if err != nil {
		return model.WorkstationMetrics{}, err
	}

	tally := engine.TallyStation(events)
	if tally.Anomalies > 0 {
		s.logger.Warn(ctx, "out-of-order intervals in workstation timeline",
			logger.String("stationID", st.StationID),
			logger.Int("count", tally.Anomalies),
		)
	}
	return tally.Metrics(st), nil
}

// FactoryMetrics aggregates per-worker metrics into one factory-wide view.
func (s *Service) FactoryMetrics(ctx context.Context) (model.FactoryMetrics, error) {
	const op = "service.FactoryMetrics"

	start := time.Now()
	defer func() { metrics.ObserveDerivation("factory", time.Since(start).Seconds()) }()

	workerMetrics, err := s.WorkerMetrics(ctx)
	if err != nil {
		return model.FactoryMetrics{}, fmt.Errorf("%s: %w", op, err)
	}

	totalWorkers, err := s.store.CountWorkers(ctx)
	if err != nil {
		return model.FactoryMetrics{}, fmt.Errorf("%s: %w", op, err)
	}
	totalStations, err := s.store.CountWorkstations(ctx)
	if err != nil {
		return model.FactoryMetrics{}, fmt.Errorf("%s: %w", op, err)
	}

	return engine.FactoryMetrics(workerMetrics, totalWorkers, totalStations), nil
}

// Seed loads the demo roster and a simulated shift of events into the store.
func (s *Service) Seed(ctx context.Context, clear bool) (demodata.Result, error) {
	const op = "service.Seed"

	res, err := demodata.SeedStore(ctx, s.store, clear)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info(ctx, "demo data seeded",
		logger.Int("workers", res.WorkersCreated),
		logger.Int("workstations", res.WorkstationsCreated),
		logger.Int("events", res.EventsCreated),
		logger.Bool("cleared", clear),
	)
	return res, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"defaultListLimit": s.defaultListLimit,
		"maxListLimit":     s.maxListLimit,
	}

	if s.started {
		events, err := s.store.CountEvents(ctx)
		if err != nil {
			return stats
		}
		workers, err := s.store.CountWorkers(ctx)
		if err != nil {
			return stats
		}
		stations, err := s.store.CountWorkstations(ctx)
		if err != nil {
			return stats
		}

		stats["totalEvents"] = events
		stats["totalWorkers"] = workers
		stats["totalWorkstations"] = stations

		metrics.UpdateStoreCounts(events, workers, stations)
	}

	return stats
}
