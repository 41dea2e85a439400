// Package demodata generates realistic demo shifts for the productivity
// service: a fixed roster of workers and workstations plus one simulated
// working day of state-change and production events.
package demodata

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// Shift shape.
const (
	shiftStartHour = 8
	shiftHours     = 8

	blockMinMinutes = 15
	blockMaxMinutes = 60

	productEventsMin = 1
	productEventsMax = 3
	productCountMin  = 1
	productCountMax  = 5

	// Product events land inside the working block, away from its edges.
	productEdgeMinutes = 5

	stationSwitchPercent = 20
)

// Confidence ranges, matching the camera pipeline's typical output.
const (
	stateConfidenceMin   = 0.85
	stateConfidenceMax   = 0.98
	productConfidenceMin = 0.90
	productConfidenceMax = 0.99
)

const randomFloatDivisor = 1000000

// Workers returns the demo worker roster.
func Workers() []model.Worker {
	return []model.Worker{
		{WorkerID: "W1", Name: "John Smith"},
		{WorkerID: "W2", Name: "Sarah Johnson"},
		{WorkerID: "W3", Name: "Michael Chen"},
		{WorkerID: "W4", Name: "Emily Rodriguez"},
		{WorkerID: "W5", Name: "David Kumar"},
		{WorkerID: "W6", Name: "Lisa Anderson"},
	}
}

// Workstations returns the demo workstation roster.
func Workstations() []model.Workstation {
	return []model.Workstation{
		{StationID: "S1", Name: "Assembly Line A", StationType: "assembly"},
		{StationID: "S2", Name: "Quality Control", StationType: "inspection"},
		{StationID: "S3", Name: "Packaging Station", StationType: "packaging"},
		{StationID: "S4", Name: "Assembly Line B", StationType: "assembly"},
		{StationID: "S5", Name: "Testing Bench", StationType: "testing"},
		{StationID: "S6", Name: "Shipping Prep", StationType: "logistics"},
	}
}

// ShiftStart returns the shift start for the given day: 08:00 local time
// with seconds stripped, so every generated timestamp is minute-aligned.
func ShiftStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), shiftStartHour, 0, 0, 0, day.Location())
}

// GenerateShift simulates one full shift for every demo worker starting at
// the given time. Each worker alternates between working and idle blocks of
// 15-60 minutes, with working blocks roughly three times as likely, and
// every working block yields one to three production events. Events are
// returned without IDs; the caller assigns them on insert.
func GenerateShift(start time.Time) []model.Event {
	stations := Workstations()
	shiftEnd := start.Add(shiftHours * time.Hour)

	var events []model.Event
	for _, w := range Workers() {
		current := start
		station := stations[randomInt(0, len(stations)-1)].StationID

		for current.Before(shiftEnd) {
			duration := randomInt(blockMinMinutes, blockMaxMinutes)
			kind := pickEventType()

			events = append(events, model.Event{
				Timestamp:     current,
				WorkerID:      w.WorkerID,
				WorkstationID: station,
				Type:          kind,
				Confidence:    randomConfidence(stateConfidenceMin, stateConfidenceMax),
				Count:         1,
			})

			if kind == model.EventWorking {
				products := randomInt(productEventsMin, productEventsMax)
				for p := 0; p < products; p++ {
					offset := randomInt(productEdgeMinutes, duration-productEdgeMinutes)
					events = append(events, model.Event{
						Timestamp:     current.Add(time.Duration(offset) * time.Minute),
						WorkerID:      w.WorkerID,
						WorkstationID: station,
						Type:          model.EventProductCount,
						Confidence:    randomConfidence(productConfidenceMin, productConfidenceMax),
						Count:         randomInt(productCountMin, productCountMax),
					})
				}
			}

			current = current.Add(time.Duration(duration) * time.Minute)

			if randomInt(1, 100) <= stationSwitchPercent {
				station = stations[randomInt(0, len(stations)-1)].StationID
			}
		}
	}

	return events
}

// pickEventType weights working blocks three to one against idle.
func pickEventType() model.EventType {
	if randomInt(1, 4) == 1 {
		return model.EventIdle
	}
	return model.EventWorking
}

// randomInt returns a uniform random integer in [min, max] using crypto/rand.
func randomInt(min, max int) int {
	if max <= min {
		return min
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	return min + int(n.Int64())
}

// randomConfidence returns a confidence in [min, max] rounded to 2 decimals.
func randomConfidence(min, max float64) float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	f := min + (max-min)*float64(n.Int64())/float64(randomFloatDivisor)
	return float64(int(f*100+0.5)) / 100
}
