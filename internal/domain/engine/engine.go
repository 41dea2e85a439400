// Package engine derives productivity metrics from event histories.
//
// Events mark state transitions, not intervals: the duration attributed to an
// event is the gap until the next event's timestamp (right-open interval).
// The last event in a sequence has no successor, so it is credited a fixed
// 30-minute tail - a documented approximation for "no further observation
// before the data was queried".
//
// All functions are pure; output depends only on the input events, so any
// arrival order that stores the same set of events yields the same metrics.
package engine

import (
	"math"
	"sort"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// Derivation constants.
const (
	// tailMinutes is the duration credited to the final event of a sequence.
	tailMinutes = 30.0

	secondsPerMinute = 60.0
	minutesPerHour   = 60.0
	percentScale     = 100.0
)

// WorkerTally holds accumulated durations and counts for one worker.
// Anomalies counts negative-duration pairs encountered after sorting; it
// should always be zero and exists so callers can surface the condition
// instead of the engine clamping it away.
type WorkerTally struct {
	ActiveMinutes float64
	IdleMinutes   float64
	Units         int
	Anomalies     int
}

// StationTally holds accumulated durations and counts for one workstation.
type StationTally struct {
	OccupancyMinutes  float64
	ProductiveMinutes float64
	Units             int
	Anomalies         int
}

// sortByTimestamp returns a copy of events ordered by timestamp ascending.
// The store is expected to return sorted sequences already, but the engine
// never assumes it.
func sortByTimestamp(events []model.Event) []model.Event {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// gapMinutes returns the right-open interval length between an event and its
// successor, in fractional minutes. Two events with identical timestamps
// yield a zero-length interval, which is attributed normally.
func gapMinutes(cur, next model.Event) float64 {
	return next.Timestamp.Sub(cur.Timestamp).Seconds() / secondsPerMinute
}

// TallyWorker reconstructs intervals for a single worker's event sequence.
// working accumulates active time, idle accumulates idle time; absent and
// product_count are point events and contribute no duration. product_count
// events sum their Count into Units independent of the interval logic.
func TallyWorker(events []model.Event) WorkerTally {
	var t WorkerTally
	sorted := sortByTimestamp(events)

	for i, ev := range sorted {
		duration := tailMinutes
		if i < len(sorted)-1 {
			duration = gapMinutes(ev, sorted[i+1])
			if duration < 0 {
				t.Anomalies++
			}
		}

		switch ev.Type {
		case model.EventWorking:
			t.ActiveMinutes += duration
		case model.EventIdle:
			t.IdleMinutes += duration
		case model.EventAbsent, model.EventProductCount:
			// point events, no duration
		}

		if ev.Type == model.EventProductCount {
			t.Units += ev.Count
		}
	}
	return t
}

// TallyStation reconstructs intervals for a single workstation's event
// sequence. working or idle means a worker is present (occupancy); working
// alone counts as productive time, a subset of occupancy.
func TallyStation(events []model.Event) StationTally {
	var t StationTally
	sorted := sortByTimestamp(events)

	for i, ev := range sorted {
		duration := tailMinutes
		if i < len(sorted)-1 {
			duration = gapMinutes(ev, sorted[i+1])
			if duration < 0 {
				t.Anomalies++
			}
		}

		if ev.Type == model.EventWorking || ev.Type == model.EventIdle {
			t.OccupancyMinutes += duration
		}
		if ev.Type == model.EventWorking {
			t.ProductiveMinutes += duration
		}
		if ev.Type == model.EventProductCount {
			t.Units += ev.Count
		}
	}
	return t
}

// WorkerMetrics derives the reportable metrics for one worker. A worker with
// zero events yields all-zero metrics. Rates divide by zero denominators as
// zero, never error.
func WorkerMetrics(w model.Worker, events []model.Event) model.WorkerMetrics {
	return TallyWorker(events).Metrics(w)
}

// Metrics derives the reportable metrics from an accumulated worker tally.
func (t WorkerTally) Metrics(w model.Worker) model.WorkerMetrics {
	total := t.ActiveMinutes + t.IdleMinutes
	var utilization, unitsPerHour float64
	if total > 0 {
		utilization = t.ActiveMinutes / total * percentScale
		unitsPerHour = float64(t.Units) / (total / minutesPerHour)
	}

	return model.WorkerMetrics{
		WorkerID:               w.WorkerID,
		Name:                   w.Name,
		TotalActiveTimeMinutes: Round2(t.ActiveMinutes),
		TotalIdleTimeMinutes:   Round2(t.IdleMinutes),
		UtilizationPercentage:  Round2(utilization),
		TotalUnitsProduced:     t.Units,
		UnitsPerHour:           Round2(unitsPerHour),
	}
}

// StationMetrics derives the reportable metrics for one workstation.
func StationMetrics(s model.Workstation, events []model.Event) model.WorkstationMetrics {
	return TallyStation(events).Metrics(s)
}

// Metrics derives the reportable metrics from an accumulated station tally.
func (t StationTally) Metrics(s model.Workstation) model.WorkstationMetrics {
	var utilization, throughput float64
	if t.OccupancyMinutes > 0 {
		utilization = t.ProductiveMinutes / t.OccupancyMinutes * percentScale
		throughput = float64(t.Units) / (t.OccupancyMinutes / minutesPerHour)
	}

	return model.WorkstationMetrics{
		StationID:             s.StationID,
		Name:                  s.Name,
		OccupancyTimeMinutes:  Round2(t.OccupancyMinutes),
		UtilizationPercentage: Round2(utilization),
		TotalUnitsProduced:    t.Units,
		ThroughputRate:        Round2(throughput),
	}
}

// FactoryMetrics aggregates per-worker metrics factory-wide. The average
// utilization is the unweighted arithmetic mean over workers, not a
// time-weighted mean. Worker and workstation totals are registration counts,
// independent of whether the entities have events.
func FactoryMetrics(workers []model.WorkerMetrics, totalWorkers, totalStations int) model.FactoryMetrics {
	var productiveMinutes, utilizationSum float64
	var production int
	for _, m := range workers {
		productiveMinutes += m.TotalActiveTimeMinutes
		production += m.TotalUnitsProduced
		utilizationSum += m.UtilizationPercentage
	}

	var avgUtilization, avgRate float64
	if len(workers) > 0 {
		avgUtilization = utilizationSum / float64(len(workers))
	}
	if productiveMinutes > 0 {
		avgRate = float64(production) / (productiveMinutes / minutesPerHour)
	}

	return model.FactoryMetrics{
		TotalProductiveTimeMinutes:   Round2(productiveMinutes),
		TotalProductionCount:         production,
		AverageProductionRate:        Round2(avgRate),
		AverageUtilizationPercentage: Round2(avgUtilization),
		TotalWorkers:                 totalWorkers,
		TotalWorkstations:            totalStations,
	}
}

// Round2 rounds to two decimal places for output. Internal accumulation
// stays unrounded; only reportable values pass through here.
func Round2(x float64) float64 {
	return math.Round(x*percentScale) / percentScale
}
