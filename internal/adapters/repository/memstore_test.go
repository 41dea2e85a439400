package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/shiftwatch/internal/adapters/repository"
	"github.com/okian/shiftwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newEvent(ts time.Time, worker, station string, t model.EventType) model.Event {
	return model.Event{
		ID:            "id-" + ts.Format("150405") + worker + station + string(t),
		Timestamp:     ts,
		WorkerID:      worker,
		WorkstationID: station,
		Type:          t,
		Confidence:    0.9,
		Count:         1,
		IngestedAt:    time.Now().UTC(),
	}
}

func TestMemStore_Events(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()

		Convey("When looking up an unknown key", func() {
			_, err := store.FindEventByKey(ctx, model.EventKey{WorkerID: "W1"})

			Convey("Then it returns ErrNotFound", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When inserting an event", func() {
			e := newEvent(base, "W1", "S1", model.EventWorking)
			stored, created, err := store.InsertEvent(ctx, e)

			Convey("Then it is stored and retrievable by key", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(stored.ID, ShouldEqual, e.ID)

				found, err := store.FindEventByKey(ctx, e.Key())
				So(err, ShouldBeNil)
				So(found.ID, ShouldEqual, e.ID)
			})

			Convey("And inserting the same key again returns the original", func() {
				dup := e
				dup.ID = "other-id"
				dup.Confidence = 0.5
				stored2, created2, err := store.InsertEvent(ctx, dup)
				So(err, ShouldBeNil)
				So(created2, ShouldBeFalse)
				So(stored2.ID, ShouldEqual, e.ID)
				So(stored2.Confidence, ShouldEqual, 0.9)

				n, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When many goroutines insert the same dedup key", func() {
			e := newEvent(base, "W1", "S1", model.EventWorking)

			var wg sync.WaitGroup
			createdCount := make(chan bool, 32)
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, created, err := store.InsertEvent(ctx, e)
					if err == nil && created {
						createdCount <- true
					}
				}()
			}
			wg.Wait()
			close(createdCount)

			Convey("Then exactly one insert wins", func() {
				So(len(createdCount), ShouldEqual, 1)
				n, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a store with events for several entities", t, func() {
		store := repository.NewMemStore()

		// Inserted deliberately out of timestamp order.
		events := []model.Event{
			newEvent(base.Add(40*time.Minute), "W1", "S1", model.EventIdle),
			newEvent(base, "W1", "S1", model.EventWorking),
			newEvent(base.Add(20*time.Minute), "W1", "S2", model.EventWorking),
			newEvent(base.Add(10*time.Minute), "W2", "S1", model.EventWorking),
		}
		for _, e := range events {
			_, _, err := store.InsertEvent(ctx, e)
			So(err, ShouldBeNil)
		}

		Convey("When fetching a worker's events", func() {
			got, err := store.EventsByWorker(ctx, "W1")

			Convey("Then they come back timestamp ascending regardless of arrival order", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].Timestamp.Equal(base), ShouldBeTrue)
				So(got[1].Timestamp.Equal(base.Add(20*time.Minute)), ShouldBeTrue)
				So(got[2].Timestamp.Equal(base.Add(40*time.Minute)), ShouldBeTrue)
			})
		})

		Convey("When fetching a station's events", func() {
			got, err := store.EventsByStation(ctx, "S1")

			Convey("Then only that station's events are returned, ascending", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].WorkerID, ShouldEqual, "W1")
				So(got[1].WorkerID, ShouldEqual, "W2")
			})
		})

		Convey("When listing events", func() {
			got, err := store.ListEvents(ctx, repository.EventFilter{})

			Convey("Then they come back most recent first", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 4)
				So(got[0].Timestamp.Equal(base.Add(40*time.Minute)), ShouldBeTrue)
				So(got[3].Timestamp.Equal(base), ShouldBeTrue)
			})
		})

		Convey("When listing with a worker filter", func() {
			got, err := store.ListEvents(ctx, repository.EventFilter{WorkerID: "W2"})

			Convey("Then only matching events are returned", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].WorkerID, ShouldEqual, "W2")
			})
		})

		Convey("When paging with offset and limit", func() {
			page, err := store.ListEvents(ctx, repository.EventFilter{Offset: 1, Limit: 2})

			Convey("Then the window is applied after ordering", func() {
				So(err, ShouldBeNil)
				So(len(page), ShouldEqual, 2)
				So(page[0].Timestamp.Equal(base.Add(20*time.Minute)), ShouldBeTrue)
			})
		})

		Convey("When the offset is past the end", func() {
			page, err := store.ListEvents(ctx, repository.EventFilter{Offset: 99})

			Convey("Then an empty page is returned", func() {
				So(err, ShouldBeNil)
				So(page, ShouldBeEmpty)
			})
		})
	})
}

func TestMemStore_Entities(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()

		Convey("When registering workers and workstations", func() {
			So(store.AddWorker(ctx, model.Worker{WorkerID: "W1", Name: "John Smith"}), ShouldBeNil)
			So(store.AddWorker(ctx, model.Worker{WorkerID: "W2", Name: "Sarah Johnson"}), ShouldBeNil)
			So(store.AddWorkstation(ctx, model.Workstation{StationID: "S1", Name: "Assembly Line A", StationType: "assembly"}), ShouldBeNil)

			Convey("Then existence checks and counts reflect them", func() {
				ok, err := store.WorkerExists(ctx, "W1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)

				ok, err = store.WorkerExists(ctx, "W9")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)

				n, err := store.CountWorkers(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				n, err = store.CountWorkstations(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("And listings preserve registration order", func() {
				workers, err := store.Workers(ctx)
				So(err, ShouldBeNil)
				So(len(workers), ShouldEqual, 2)
				So(workers[0].WorkerID, ShouldEqual, "W1")
				So(workers[1].WorkerID, ShouldEqual, "W2")
			})

			Convey("And re-registering an id returns ErrDuplicate", func() {
				So(store.AddWorker(ctx, model.Worker{WorkerID: "W1", Name: "Impostor"}), ShouldEqual, repository.ErrDuplicate)
			})

			Convey("And Clear empties everything", func() {
				So(store.Clear(ctx), ShouldBeNil)
				n, err := store.CountWorkers(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				n, err = store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})
	})
}
