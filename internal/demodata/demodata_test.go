package demodata

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/shiftwatch/internal/adapters/repository"
	"github.com/okian/shiftwatch/internal/domain/model"
)

func TestGenerateShift(t *testing.T) {
	Convey("Given a shift starting today at 08:00", t, func() {
		start := ShiftStart(time.Date(2024, 3, 11, 14, 22, 37, 0, time.UTC))

		So(start.Hour(), ShouldEqual, 8)
		So(start.Minute(), ShouldEqual, 0)
		So(start.Second(), ShouldEqual, 0)

		Convey("When a full shift is generated", func() {
			events := GenerateShift(start)

			Convey("Then every worker has events", func() {
				byWorker := make(map[string]int)
				for _, e := range events {
					byWorker[e.WorkerID]++
				}
				So(len(byWorker), ShouldEqual, len(Workers()))
			})

			Convey("Then every event stays within plausible bounds", func() {
				shiftEnd := start.Add(8 * time.Hour)
				stations := make(map[string]bool)
				for _, s := range Workstations() {
					stations[s.StationID] = true
				}

				for _, e := range events {
					So(e.Type.Valid(), ShouldBeTrue)
					So(e.Timestamp.Before(start), ShouldBeFalse)
					// A block opened just before shift end can push its
					// production events past it, but never by a full block.
					So(e.Timestamp.Before(shiftEnd.Add(time.Hour)), ShouldBeTrue)
					So(stations[e.WorkstationID], ShouldBeTrue)
					So(e.Confidence, ShouldBeBetweenOrEqual, 0.85, 0.99)
					So(e.Count, ShouldBeBetweenOrEqual, 1, 5)
				}
			})

			Convey("Then production events only accompany working blocks", func() {
				working := 0
				products := 0
				for _, e := range events {
					switch e.Type {
					case model.EventWorking:
						working++
					case model.EventProductCount:
						products++
					}
				}
				So(working, ShouldBeGreaterThan, 0)
				So(products, ShouldBeGreaterThanOrEqualTo, working)
				So(products, ShouldBeLessThanOrEqualTo, working*3)
			})
		})
	})
}

func TestSeedStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()

		Convey("When the demo data is seeded", func() {
			res, err := SeedStore(ctx, store, false)
			So(err, ShouldBeNil)

			Convey("Then the full roster is registered", func() {
				So(res.WorkersCreated, ShouldEqual, 6)
				So(res.WorkstationsCreated, ShouldEqual, 6)
				So(res.EventsCreated, ShouldBeGreaterThan, 0)

				workers, err := store.Workers(ctx)
				So(err, ShouldBeNil)
				So(len(workers), ShouldEqual, 6)

				n, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, res.EventsCreated)
			})

			Convey("And seeding again without clearing keeps the roster", func() {
				res2, err := SeedStore(ctx, store, false)
				So(err, ShouldBeNil)
				So(res2.WorkersCreated, ShouldEqual, 0)
				So(res2.WorkstationsCreated, ShouldEqual, 0)
			})

			Convey("And seeding with clear starts from scratch", func() {
				res2, err := SeedStore(ctx, store, true)
				So(err, ShouldBeNil)
				So(res2.WorkersCreated, ShouldEqual, 6)

				n, err := store.CountEvents(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, res2.EventsCreated)
			})
		})
	})
}
