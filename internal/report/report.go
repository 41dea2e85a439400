// Package report renders derived metrics into spreadsheet workbooks for
// offline consumption by shift supervisors.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// Sheet names in the factory workbook.
const (
	workersSheet  = "Workers"
	stationsSheet = "Workstations"
	factorySheet  = "Factory"
)

var workerHeader = []any{
	"Worker ID",
	"Name",
	"Active Minutes",
	"Idle Minutes",
	"Utilization %",
	"Units Produced",
	"Units Per Hour",
}

var stationHeader = []any{
	"Station ID",
	"Name",
	"Occupancy Minutes",
	"Utilization %",
	"Units Produced",
	"Throughput Rate",
}

// Workbook renders the per-worker, per-workstation and factory-wide
// metrics into a single xlsx workbook and returns its serialized bytes.
func Workbook(workers []model.WorkerMetrics, stations []model.WorkstationMetrics, factory model.FactoryMetrics) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("report: header style: %w", err)
	}

	if err := writeWorkersSheet(f, headerStyle, workers); err != nil {
		return nil, err
	}
	if err := writeStationsSheet(f, headerStyle, stations); err != nil {
		return nil, err
	}
	if err := writeFactorySheet(f, headerStyle, factory); err != nil {
		return nil, err
	}

	// The default sheet is replaced by the three named ones.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("report: delete default sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("report: serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeWorkersSheet(f *excelize.File, headerStyle int, workers []model.WorkerMetrics) error {
	if err := newSheet(f, workersSheet, headerStyle, workerHeader); err != nil {
		return err
	}
	for i, m := range workers {
		row := []any{
			m.WorkerID,
			m.Name,
			m.TotalActiveTimeMinutes,
			m.TotalIdleTimeMinutes,
			m.UtilizationPercentage,
			m.TotalUnitsProduced,
			m.UnitsPerHour,
		}
		if err := setRow(f, workersSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeStationsSheet(f *excelize.File, headerStyle int, stations []model.WorkstationMetrics) error {
	if err := newSheet(f, stationsSheet, headerStyle, stationHeader); err != nil {
		return err
	}
	for i, m := range stations {
		row := []any{
			m.StationID,
			m.Name,
			m.OccupancyTimeMinutes,
			m.UtilizationPercentage,
			m.TotalUnitsProduced,
			m.ThroughputRate,
		}
		if err := setRow(f, stationsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeFactorySheet(f *excelize.File, headerStyle int, factory model.FactoryMetrics) error {
	if err := newSheet(f, factorySheet, headerStyle, []any{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]any{
		{"Total Productive Minutes", factory.TotalProductiveTimeMinutes},
		{"Total Production Count", factory.TotalProductionCount},
		{"Average Production Rate", factory.AverageProductionRate},
		{"Average Utilization %", factory.AverageUtilizationPercentage},
		{"Total Workers", factory.TotalWorkers},
		{"Total Workstations", factory.TotalWorkstations},
	}
	for i, row := range rows {
		if err := setRow(f, factorySheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func newSheet(f *excelize.File, name string, headerStyle int, header []any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: sheet %s: %w", name, err)
	}
	if err := setRow(f, name, 1, header); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("report: sheet %s: %w", name, err)
	}
	if err := f.SetCellStyle(name, "A1", end, headerStyle); err != nil {
		return fmt.Errorf("report: sheet %s: %w", name, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("report: sheet %s row %d: %w", sheet, row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("report: sheet %s row %d: %w", sheet, row, err)
	}
	return nil
}
