package demodata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/shiftwatch/internal/adapters/repository"
)

// Result reports how many records a seeding run created. Events that
// collapse onto an already stored deduplication key are not counted.
type Result struct {
	WorkersCreated      int `json:"workers_created"`
	WorkstationsCreated int `json:"workstations_created"`
	EventsCreated       int `json:"events_created"`
}

// SeedStore populates the store with the demo roster and one simulated
// shift of events for today. With clear set, existing data is wiped first;
// otherwise already registered workers and workstations are kept as-is.
func SeedStore(ctx context.Context, store repository.Store, clear bool) (Result, error) {
	const op = "demodata.SeedStore"

	var res Result

	if clear {
		if err := store.Clear(ctx); err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, w := range Workers() {
		if err := store.AddWorker(ctx, w); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return res, fmt.Errorf("%s: worker %s: %w", op, w.WorkerID, err)
		}
		res.WorkersCreated++
	}

	for _, s := range Workstations() {
		if err := store.AddWorkstation(ctx, s); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return res, fmt.Errorf("%s: workstation %s: %w", op, s.StationID, err)
		}
		res.WorkstationsCreated++
	}

	now := time.Now().UTC()
	for _, e := range GenerateShift(ShiftStart(now)) {
		e.ID = uuid.NewString()
		e.IngestedAt = now
		_, created, err := store.InsertEvent(ctx, e)
		if err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		if created {
			res.EventsCreated++
		}
	}

	return res, nil
}
