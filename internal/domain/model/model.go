// Package model contains domain models passed between layers.
package model

import "time"

// EventType classifies an observation from the perception pipeline.
type EventType string

// The closed set of event types.
const (
	EventWorking      EventType = "working"
	EventIdle         EventType = "idle"
	EventAbsent       EventType = "absent"
	EventProductCount EventType = "product_count"
)

// Valid reports whether t is a member of the closed event type set.
func (t EventType) Valid() bool {
	switch t {
	case EventWorking, EventIdle, EventAbsent, EventProductCount:
		return true
	default:
		return false
	}
}

// Worker is a registered factory worker. Workers are created by seeding or
// explicit registration and never mutated afterwards.
type Worker struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
}

// Workstation is a registered station on the floor. StationType is an
// optional category label ("assembly", "inspection", ...).
type Workstation struct {
	StationID   string `json:"station_id"`
	Name        string `json:"name"`
	StationType string `json:"station_type,omitempty"`
}

// Event is the atomic unit of observation. Timestamp is the state-change
// moment as observed by the camera pipeline, not insertion time; IngestedAt
// records when the event was stored, which supports auditing out-of-order
// arrivals. Events are immutable once stored.
type Event struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	WorkerID      string    `json:"worker_id"`
	WorkstationID string    `json:"workstation_id"`
	Type          EventType `json:"event_type"`
	Confidence    float64   `json:"confidence"`
	Count         int       `json:"count"`
	IngestedAt    time.Time `json:"ingested_at"`
}

// EventKey is the natural dedup key: at most one stored event may exist per
// (timestamp, worker, workstation, type) combination. The timestamp is held
// as UTC nanoseconds so keys compare by instant, not by wall-clock location.
type EventKey struct {
	UnixNano      int64
	WorkerID      string
	WorkstationID string
	Type          EventType
}

// Key returns the dedup key for the event.
func (e Event) Key() EventKey {
	return EventKey{
		UnixNano:      e.Timestamp.UnixNano(),
		WorkerID:      e.WorkerID,
		WorkstationID: e.WorkstationID,
		Type:          e.Type,
	}
}

// WorkerMetrics is the derived productivity summary for one worker.
type WorkerMetrics struct {
	WorkerID               string  `json:"worker_id"`
	Name                   string  `json:"name"`
	TotalActiveTimeMinutes float64 `json:"total_active_time_minutes"`
	TotalIdleTimeMinutes   float64 `json:"total_idle_time_minutes"`
	UtilizationPercentage  float64 `json:"utilization_percentage"`
	TotalUnitsProduced     int     `json:"total_units_produced"`
	UnitsPerHour           float64 `json:"units_per_hour"`
}

// WorkstationMetrics is the derived summary for one workstation. Occupancy
// is time with any worker present; utilization is the productive subset.
type WorkstationMetrics struct {
	StationID             string  `json:"station_id"`
	Name                  string  `json:"name"`
	OccupancyTimeMinutes  float64 `json:"occupancy_time_minutes"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
	TotalUnitsProduced    int     `json:"total_units_produced"`
	ThroughputRate        float64 `json:"throughput_rate"`
}

// FactoryMetrics aggregates worker metrics factory-wide. The average
// utilization is the unweighted arithmetic mean over workers.
type FactoryMetrics struct {
	TotalProductiveTimeMinutes   float64 `json:"total_productive_time_minutes"`
	TotalProductionCount         int     `json:"total_production_count"`
	AverageProductionRate        float64 `json:"average_production_rate"`
	AverageUtilizationPercentage float64 `json:"average_utilization_percentage"`
	TotalWorkers                 int     `json:"total_workers"`
	TotalWorkstations            int     `json:"total_workstations"`
}
