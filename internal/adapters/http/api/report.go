// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"

	"github.com/okian/shiftwatch/internal/report"
)

// ReportHandler handles spreadsheet report downloads.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleFactoryReport handles GET /api/reports/factory.xlsx requests and
// streams a workbook with per-worker, per-workstation and factory sheets.
func (h *ReportHandler) HandleFactoryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()

	workers, err := h.deps.WorkerMetrics(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	stations, err := h.deps.WorkstationMetrics(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	factory, err := h.deps.FactoryMetrics(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	book, err := report.Workbook(workers, stations, factory)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	filename := "factory-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(book)
}
