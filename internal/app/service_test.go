package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/shiftwatch/internal/adapters/repository"
	service "github.com/okian/shiftwatch/internal/app"
	"github.com/okian/shiftwatch/internal/domain/model"
	"github.com/okian/shiftwatch/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init("text"); err != nil {
		panic(err)
	}
}

func startedService(ctx context.Context) *service.Service {
	svc := service.New(service.WithStore(repository.NewMemStore()))
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	return svc
}

func registerW1S1(ctx context.Context, svc *service.Service) {
	if err := svc.RegisterWorker(ctx, model.Worker{WorkerID: "W1", Name: "John Smith"}); err != nil {
		panic(err)
	}
	if err := svc.RegisterWorkstation(ctx, model.Workstation{StationID: "S1", Name: "Assembly Line A", StationType: "assembly"}); err != nil {
		panic(err)
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_IngestEvent(t *testing.T) {
	Convey("Given a started service with a registered worker and workstation", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()
		registerW1S1(ctx, svc)

		ts := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
		event := model.Event{
			Timestamp:     ts,
			WorkerID:      "W1",
			WorkstationID: "S1",
			Type:          model.EventWorking,
			Confidence:    0.95,
			Count:         1,
		}

		Convey("When a valid event is ingested", func() {
			stored, duplicate, err := svc.IngestEvent(ctx, event)

			So(err, ShouldBeNil)
			So(duplicate, ShouldBeFalse)
			So(stored.ID, ShouldNotBeEmpty)
			So(stored.IngestedAt.IsZero(), ShouldBeFalse)

			Convey("And the same event again is acknowledged as duplicate", func() {
				again, duplicate, err := svc.IngestEvent(ctx, event)

				So(err, ShouldBeNil)
				So(duplicate, ShouldBeTrue)
				So(again.ID, ShouldEqual, stored.ID)
			})

			Convey("And a replay with different confidence and count keeps the original", func() {
				replay := event
				replay.Confidence = 0.5
				replay.Count = 9

				again, duplicate, err := svc.IngestEvent(ctx, replay)

				So(err, ShouldBeNil)
				So(duplicate, ShouldBeTrue)
				So(again.ID, ShouldEqual, stored.ID)
				So(again.Confidence, ShouldEqual, 0.95)
				So(again.Count, ShouldEqual, 1)
			})

			Convey("And a different timestamp is a distinct event", func() {
				next := event
				next.Timestamp = ts.Add(10 * time.Minute)

				stored2, duplicate, err := svc.IngestEvent(ctx, next)

				So(err, ShouldBeNil)
				So(duplicate, ShouldBeFalse)
				So(stored2.ID, ShouldNotEqual, stored.ID)
			})
		})

		Convey("When the worker is unknown", func() {
			bad := event
			bad.WorkerID = "W99"

			_, _, err := svc.IngestEvent(ctx, bad)

			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			Convey("And nothing is stored", func() {
				events, err := svc.ListEvents(ctx, repository.EventFilter{})
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 0)
			})
		})

		Convey("When the workstation is unknown", func() {
			bad := event
			bad.WorkstationID = "S99"

			_, _, err := svc.IngestEvent(ctx, bad)

			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the event is structurally invalid", func() {
			cases := []model.Event{
				{WorkerID: "W1", WorkstationID: "S1", Type: model.EventWorking, Confidence: 0.9, Count: 1},
				{Timestamp: ts, WorkstationID: "S1", Type: model.EventWorking, Confidence: 0.9, Count: 1},
				{Timestamp: ts, WorkerID: "W1", Type: model.EventWorking, Confidence: 0.9, Count: 1},
				{Timestamp: ts, WorkerID: "W1", WorkstationID: "S1", Type: "sleeping", Confidence: 0.9, Count: 1},
				{Timestamp: ts, WorkerID: "W1", WorkstationID: "S1", Type: model.EventWorking, Confidence: 1.5, Count: 1},
				{Timestamp: ts, WorkerID: "W1", WorkstationID: "S1", Type: model.EventWorking, Confidence: 0.9, Count: -1},
			}

			for _, bad := range cases {
				_, _, err := svc.IngestEvent(ctx, bad)
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			}
		})
	})
}

func TestService_Registration(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()

		Convey("When a worker is registered twice", func() {
			So(svc.RegisterWorker(ctx, model.Worker{WorkerID: "W1", Name: "John Smith"}), ShouldBeNil)
			err := svc.RegisterWorker(ctx, model.Worker{WorkerID: "W1", Name: "Someone Else"})

			So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
		})

		Convey("When a worker is missing a name", func() {
			err := svc.RegisterWorker(ctx, model.Worker{WorkerID: "W1"})

			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
		})

		Convey("When a workstation is registered", func() {
			So(svc.RegisterWorkstation(ctx, model.Workstation{StationID: "S1", Name: "Assembly Line A", StationType: "assembly"}), ShouldBeNil)

			stations, err := svc.Workstations(ctx)
			So(err, ShouldBeNil)
			So(len(stations), ShouldEqual, 1)
		})
	})
}

func TestService_Metrics(t *testing.T) {
	Convey("Given a service with one worker's morning on record", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()
		registerW1S1(ctx, svc)

		base := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
		ingest := func(offset time.Duration, kind model.EventType, count int) {
			_, _, err := svc.IngestEvent(ctx, model.Event{
				Timestamp:     base.Add(offset),
				WorkerID:      "W1",
				WorkstationID: "S1",
				Type:          kind,
				Confidence:    0.9,
				Count:         count,
			})
			So(err, ShouldBeNil)
		}

		ingest(0, model.EventWorking, 1)
		ingest(20*time.Minute, model.EventProductCount, 3)
		ingest(30*time.Minute, model.EventIdle, 1)
		ingest(60*time.Minute, model.EventAbsent, 1)

		Convey("Then the worker metrics reflect the reconstructed intervals", func() {
			m, err := svc.WorkerMetricsByID(ctx, "W1")

			So(err, ShouldBeNil)
			So(m.WorkerID, ShouldEqual, "W1")
			So(m.Name, ShouldEqual, "John Smith")
			So(m.TotalActiveTimeMinutes, ShouldEqual, 20.0)
			So(m.TotalIdleTimeMinutes, ShouldEqual, 30.0)
			So(m.TotalUnitsProduced, ShouldEqual, 3)
			So(m.UtilizationPercentage, ShouldEqual, 40.0)
			So(m.UnitsPerHour, ShouldEqual, 3.6)
		})

		Convey("Then ingestion order does not change the outcome", func() {
			// The same timeline arrived out of order for a second worker.
			So(svc.RegisterWorker(ctx, model.Worker{WorkerID: "W2", Name: "Sarah Johnson"}), ShouldBeNil)
			for _, e := range []struct {
				offset time.Duration
				kind   model.EventType
				count  int
			}{
				{60 * time.Minute, model.EventAbsent, 1},
				{0, model.EventWorking, 1},
				{30 * time.Minute, model.EventIdle, 1},
				{20 * time.Minute, model.EventProductCount, 3},
			} {
				_, _, err := svc.IngestEvent(ctx, model.Event{
					Timestamp:     base.Add(e.offset),
					WorkerID:      "W2",
					WorkstationID: "S1",
					Type:          e.kind,
					Confidence:    0.9,
					Count:         e.count,
				})
				So(err, ShouldBeNil)
			}

			m1, err := svc.WorkerMetricsByID(ctx, "W1")
			So(err, ShouldBeNil)
			m2, err := svc.WorkerMetricsByID(ctx, "W2")
			So(err, ShouldBeNil)

			So(m2.TotalActiveTimeMinutes, ShouldEqual, m1.TotalActiveTimeMinutes)
			So(m2.TotalIdleTimeMinutes, ShouldEqual, m1.TotalIdleTimeMinutes)
			So(m2.UtilizationPercentage, ShouldEqual, m1.UtilizationPercentage)
			So(m2.UnitsPerHour, ShouldEqual, m1.UnitsPerHour)
		})

		Convey("Then station metrics cover the shared workstation", func() {
			m, err := svc.WorkstationMetricsByID(ctx, "S1")

			So(err, ShouldBeNil)
			So(m.StationID, ShouldEqual, "S1")
			So(m.OccupancyTimeMinutes, ShouldEqual, 50.0)
			So(m.TotalUnitsProduced, ShouldEqual, 3)
		})

		Convey("Then factory metrics aggregate every registered worker", func() {
			So(svc.RegisterWorker(ctx, model.Worker{WorkerID: "W3", Name: "Michael Chen"}), ShouldBeNil)

			m, err := svc.FactoryMetrics(ctx)

			So(err, ShouldBeNil)
			So(m.TotalWorkers, ShouldEqual, 2)
			So(m.TotalWorkstations, ShouldEqual, 1)
			So(m.TotalProductiveTimeMinutes, ShouldEqual, 20.0)
			So(m.TotalProductionCount, ShouldEqual, 3)
			// W1 at 40% and the idle W3 at 0% average to 20%.
			So(m.AverageUtilizationPercentage, ShouldEqual, 20.0)
		})

		Convey("Then unknown identifiers yield not-found errors", func() {
			_, err := svc.WorkerMetricsByID(ctx, "W99")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = svc.WorkstationMetricsByID(ctx, "S99")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_ListEvents(t *testing.T) {
	Convey("Given a service with a handful of events", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithStore(repository.NewMemStore()),
			service.WithListLimits(2, 3),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		registerW1S1(ctx, svc)

		base := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			_, _, err := svc.IngestEvent(ctx, model.Event{
				Timestamp:     base.Add(time.Duration(i) * time.Minute),
				WorkerID:      "W1",
				WorkstationID: "S1",
				Type:          model.EventWorking,
				Confidence:    0.9,
				Count:         1,
			})
			So(err, ShouldBeNil)
		}

		Convey("When listing without an explicit limit", func() {
			events, err := svc.ListEvents(ctx, repository.EventFilter{})

			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 2)

			Convey("And the newest event comes first", func() {
				So(events[0].Timestamp.After(events[1].Timestamp), ShouldBeTrue)
			})
		})

		Convey("When asking for more than the cap", func() {
			events, err := svc.ListEvents(ctx, repository.EventFilter{Limit: 100})

			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 3)
		})

		Convey("When filtering by worker", func() {
			events, err := svc.ListEvents(ctx, repository.EventFilter{WorkerID: "W2", Limit: 3})

			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 0)
		})
	})
}

func TestService_Seed(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(ctx)
		defer svc.Stop()

		Convey("When demo data is seeded", func() {
			res, err := svc.Seed(ctx, false)

			So(err, ShouldBeNil)
			So(res.WorkersCreated, ShouldEqual, 6)
			So(res.WorkstationsCreated, ShouldEqual, 6)
			So(res.EventsCreated, ShouldBeGreaterThan, 0)

			Convey("And the stats reflect the seeded store", func() {
				stats := svc.GetStats()
				So(stats["totalWorkers"], ShouldEqual, 6)
				So(stats["totalWorkstations"], ShouldEqual, 6)
				So(stats["totalEvents"], ShouldEqual, res.EventsCreated)
			})
		})
	})
}
