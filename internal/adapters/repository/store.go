// Package repository defines the event store interface and errors.
package repository

import (
	"context"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// EventFilter narrows and pages a ListEvents query. Zero-value id fields are
// ignored; Limit <= 0 means no cap.
type EventFilter struct {
	WorkerID      string
	WorkstationID string
	Offset        int
	Limit         int
}

// Store provides durable access to events and the reference entities they
// point at. Events are immutable once inserted; timestamp-ordered retrieval
// is guaranteed regardless of arrival order.
type Store interface {
	// FindEventByKey returns the stored event with the given dedup key.
	// Returns ErrNotFound if no such event exists.
	FindEventByKey(ctx context.Context, key model.EventKey) (model.Event, error)

	// InsertEvent stores the event unless one with the same dedup key
	// already exists. The check and the insert are atomic with respect to
	// concurrent writers of the same key: on a key collision the stored
	// event is returned with created=false and no error.
	InsertEvent(ctx context.Context, e model.Event) (stored model.Event, created bool, err error)

	// ListEvents returns events matching the filter, most recent timestamp
	// first.
	ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error)

	// EventsByWorker returns all events for one worker, timestamp ascending.
	EventsByWorker(ctx context.Context, workerID string) ([]model.Event, error)

	// EventsByStation returns all events for one workstation, timestamp
	// ascending.
	EventsByStation(ctx context.Context, stationID string) ([]model.Event, error)

	// AddWorker registers a worker. Returns ErrDuplicate if the id is taken.
	AddWorker(ctx context.Context, w model.Worker) error

	// AddWorkstation registers a workstation. Returns ErrDuplicate if the
	// id is taken.
	AddWorkstation(ctx context.Context, s model.Workstation) error

	// WorkerExists reports whether a worker with the id is registered.
	WorkerExists(ctx context.Context, workerID string) (bool, error)

	// WorkstationExists reports whether a workstation with the id is
	// registered.
	WorkstationExists(ctx context.Context, stationID string) (bool, error)

	// Workers returns all registered workers.
	Workers(ctx context.Context) ([]model.Worker, error)

	// Workstations returns all registered workstations.
	Workstations(ctx context.Context) ([]model.Workstation, error)

	// CountWorkers returns the number of registered workers.
	CountWorkers(ctx context.Context) (int, error)

	// CountWorkstations returns the number of registered workstations.
	CountWorkstations(ctx context.Context) (int, error)

	// CountEvents returns the number of stored events.
	CountEvents(ctx context.Context) (int, error)

	// Clear removes all events, workers and workstations. Demo reset only.
	Clear(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
