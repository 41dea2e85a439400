package report

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/shiftwatch/internal/domain/model"
)

func TestWorkbook(t *testing.T) {
	Convey("Given derived metrics for a small factory", t, func() {
		workers := []model.WorkerMetrics{
			{
				WorkerID:               "W1",
				Name:                   "John Smith",
				TotalActiveTimeMinutes: 20,
				TotalIdleTimeMinutes:   30,
				UtilizationPercentage:  40,
				TotalUnitsProduced:     3,
				UnitsPerHour:           3.6,
			},
		}
		stations := []model.WorkstationMetrics{
			{
				StationID:             "S1",
				Name:                  "Assembly Line A",
				OccupancyTimeMinutes:  50,
				UtilizationPercentage: 40,
				TotalUnitsProduced:    3,
				ThroughputRate:        3.6,
			},
		}
		factory := model.FactoryMetrics{
			TotalProductiveTimeMinutes:   20,
			TotalProductionCount:         3,
			AverageProductionRate:        9,
			AverageUtilizationPercentage: 40,
			TotalWorkers:                 1,
			TotalWorkstations:            1,
		}

		Convey("When the workbook is rendered", func() {
			data, err := Workbook(workers, stations, factory)

			So(err, ShouldBeNil)
			So(len(data), ShouldBeGreaterThan, 0)

			Convey("Then it opens as a spreadsheet with the three sheets", func() {
				f, err := excelize.OpenReader(bytes.NewReader(data))
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()

				sheets := f.GetSheetList()
				So(sheets, ShouldContain, "Workers")
				So(sheets, ShouldContain, "Workstations")
				So(sheets, ShouldContain, "Factory")

				Convey("And the worker rows carry the metric values", func() {
					header, err := f.GetCellValue("Workers", "A1")
					So(err, ShouldBeNil)
					So(header, ShouldEqual, "Worker ID")

					id, err := f.GetCellValue("Workers", "A2")
					So(err, ShouldBeNil)
					So(id, ShouldEqual, "W1")

					units, err := f.GetCellValue("Workers", "F2")
					So(err, ShouldBeNil)
					So(units, ShouldEqual, "3")
				})

				Convey("And the factory sheet lists the aggregates", func() {
					label, err := f.GetCellValue("Factory", "A2")
					So(err, ShouldBeNil)
					So(label, ShouldEqual, "Total Productive Minutes")

					value, err := f.GetCellValue("Factory", "B6")
					So(err, ShouldBeNil)
					So(value, ShouldEqual, "1")
				})
			})
		})

		Convey("When rendered with no data at all", func() {
			data, err := Workbook(nil, nil, model.FactoryMetrics{})

			So(err, ShouldBeNil)

			f, err := excelize.OpenReader(bytes.NewReader(data))
			So(err, ShouldBeNil)
			defer func() { _ = f.Close() }()

			rows, err := f.GetRows("Workers")
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 1)
		})
	})
}
