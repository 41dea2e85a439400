package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// MemStore is the default in-memory Store. A single mutex serializes the
// dedup check and the insert, so concurrent ingestion of the same key cannot
// create duplicates. Suited for demos and tests; use the Postgres store for
// durable deployments.
type MemStore struct {
	mu       sync.RWMutex
	events   map[model.EventKey]model.Event
	workers  map[string]model.Worker
	stations map[string]model.Workstation

	// registration order, so listings are stable
	workerOrder  []string
	stationOrder []string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		events:   make(map[model.EventKey]model.Event),
		workers:  make(map[string]model.Worker),
		stations: make(map[string]model.Workstation),
	}
}

// FindEventByKey returns the stored event for key, or ErrNotFound.
func (s *MemStore) FindEventByKey(_ context.Context, key model.EventKey) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[key]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return e, nil
}

// InsertEvent stores e unless its dedup key is taken; the existing event is
// returned unchanged in that case.
func (s *MemStore) InsertEvent(_ context.Context, e model.Event) (model.Event, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.Key()
	if existing, ok := s.events[key]; ok {
		return existing, false, nil
	}
	s.events[key] = e
	return e, true, nil
}

// ListEvents returns filtered events, most recent timestamp first.
func (s *MemStore) ListEvents(_ context.Context, f EventFilter) ([]model.Event, error) {
	s.mu.RLock()
	matched := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		if f.WorkerID != "" && e.WorkerID != f.WorkerID {
			continue
		}
		if f.WorkstationID != "" && e.WorkstationID != f.WorkstationID {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []model.Event{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// EventsByWorker returns the worker's events, timestamp ascending.
func (s *MemStore) EventsByWorker(_ context.Context, workerID string) ([]model.Event, error) {
	return s.entityEvents(func(e model.Event) bool { return e.WorkerID == workerID }), nil
}

// EventsByStation returns the workstation's events, timestamp ascending.
func (s *MemStore) EventsByStation(_ context.Context, stationID string) ([]model.Event, error) {
	return s.entityEvents(func(e model.Event) bool { return e.WorkstationID == stationID }), nil
}

func (s *MemStore) entityEvents(match func(model.Event) bool) []model.Event {
	s.mu.RLock()
	out := make([]model.Event, 0)
	for _, e := range s.events {
		if match(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// AddWorker registers a worker.
func (s *MemStore) AddWorker(_ context.Context, w model.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workers[w.WorkerID]; ok {
		return ErrDuplicate
	}
	s.workers[w.WorkerID] = w
	s.workerOrder = append(s.workerOrder, w.WorkerID)
	return nil
}

// AddWorkstation registers a workstation.
func (s *MemStore) AddWorkstation(_ context.Context, st model.Workstation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stations[st.StationID]; ok {
		return ErrDuplicate
	}
	s.stations[st.StationID] = st
	s.stationOrder = append(s.stationOrder, st.StationID)
	return nil
}

// WorkerExists reports whether the worker id is registered.
func (s *MemStore) WorkerExists(_ context.Context, workerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.workers[workerID]
	return ok, nil
}

// WorkstationExists reports whether the workstation id is registered.
func (s *MemStore) WorkstationExists(_ context.Context, stationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.stations[stationID]
	return ok, nil
}

// Workers returns all registered workers in registration order.
func (s *MemStore) Workers(_ context.Context) ([]model.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Worker, 0, len(s.workerOrder))
	for _, id := range s.workerOrder {
		out = append(out, s.workers[id])
	}
	return out, nil
}

// Workstations returns all registered workstations in registration order.
func (s *MemStore) Workstations(_ context.Context) ([]model.Workstation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Workstation, 0, len(s.stationOrder))
	for _, id := range s.stationOrder {
		out = append(out, s.stations[id])
	}
	return out, nil
}

// CountWorkers returns the number of registered workers.
func (s *MemStore) CountWorkers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workers), nil
}

// CountWorkstations returns the number of registered workstations.
func (s *MemStore) CountWorkstations(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations), nil
}

// CountEvents returns the number of stored events.
func (s *MemStore) CountEvents(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

// Clear removes everything. Demo reset only.
func (s *MemStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make(map[model.EventKey]model.Event)
	s.workers = make(map[string]model.Worker)
	s.stations = make(map[string]model.Workstation)
	s.workerOrder = nil
	s.stationOrder = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }
