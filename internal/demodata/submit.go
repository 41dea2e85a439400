package demodata

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// SubmitStats counts the outcomes of a submission run.
type SubmitStats struct {
	Submitted int
	Created   int
	Duplicate int
	Failed    int
}

// eventPayload is the wire shape accepted by POST /api/events.
type eventPayload struct {
	Timestamp     string  `json:"timestamp"`
	WorkerID      string  `json:"worker_id"`
	WorkstationID string  `json:"workstation_id"`
	EventType     string  `json:"event_type"`
	Confidence    float64 `json:"confidence"`
	Count         int     `json:"count"`
}

// Submitter pushes generated events into a running service over HTTP.
type Submitter struct {
	client  *resty.Client
	workers int
}

// NewSubmitter builds a Submitter against the given base URL.
func NewSubmitter(baseURL string, workers int, timeout time.Duration) *Submitter {
	if workers < 1 {
		workers = 1
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Submitter{client: client, workers: workers}
}

// CheckHealth verifies the target service is up before a run.
func (s *Submitter) CheckHealth(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", resp.StatusCode())
	}
	return nil
}

// RegisterEntities registers the demo roster, tolerating entities that the
// server already knows about.
func (s *Submitter) RegisterEntities(ctx context.Context) error {
	for _, w := range Workers() {
		resp, err := s.client.R().SetContext(ctx).SetBody(w).Post("/api/workers")
		if err != nil {
			return fmt.Errorf("register worker %s: %w", w.WorkerID, err)
		}
		if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusConflict {
			return fmt.Errorf("register worker %s: unexpected status %d", w.WorkerID, resp.StatusCode())
		}
	}
	for _, st := range Workstations() {
		resp, err := s.client.R().SetContext(ctx).SetBody(st).Post("/api/workstations")
		if err != nil {
			return fmt.Errorf("register workstation %s: %w", st.StationID, err)
		}
		if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusConflict {
			return fmt.Errorf("register workstation %s: unexpected status %d", st.StationID, resp.StatusCode())
		}
	}
	return nil
}

// Submit posts the events concurrently and returns per-outcome counts.
// Duplicates are a normal outcome: re-running a submission against the same
// server counts every event as duplicate and nothing as created.
func (s *Submitter) Submit(ctx context.Context, events []model.Event) SubmitStats {
	var submitted, created, duplicate, failed int64

	eventCh := make(chan model.Event, s.workers*2)
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range eventCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 1)
				switch s.submitOne(ctx, e) {
				case http.StatusCreated:
					atomic.AddInt64(&created, 1)
				case http.StatusOK:
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(eventCh)
		for _, e := range events {
			select {
			case <-ctx.Done():
				return
			case eventCh <- e:
			}
		}
	}()

	wg.Wait()

	return SubmitStats{
		Submitted: int(atomic.LoadInt64(&submitted)),
		Created:   int(atomic.LoadInt64(&created)),
		Duplicate: int(atomic.LoadInt64(&duplicate)),
		Failed:    int(atomic.LoadInt64(&failed)),
	}
}

func (s *Submitter) submitOne(ctx context.Context, e model.Event) int {
	payload := eventPayload{
		Timestamp:     e.Timestamp.Format(time.RFC3339),
		WorkerID:      e.WorkerID,
		WorkstationID: e.WorkstationID,
		EventType:     string(e.Type),
		Confidence:    e.Confidence,
		Count:         e.Count,
	}

	resp, err := s.client.R().SetContext(ctx).SetBody(payload).Post("/api/events")
	if err != nil {
		return 0
	}
	return resp.StatusCode()
}

// FactorySummary fetches the factory-wide metrics as raw JSON for display
// at the end of a run.
func (s *Submitter) FactorySummary(ctx context.Context) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/api/metrics/factory")
	if err != nil {
		return "", fmt.Errorf("factory metrics: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("factory metrics: unexpected status %d", resp.StatusCode())
	}
	return resp.String(), nil
}
