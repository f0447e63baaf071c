// Package reports renders downloadable fleet reports.
package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"

	alerting "energyguard/internal/alerting/domain"
	dashapp "energyguard/internal/dashboard/application"
	dashboard "energyguard/internal/dashboard/domain"
)

// AlertStatsSource provides aggregated alert counts.
type AlertStatsSource interface {
	Stats(ctx context.Context) (alerting.Stats, error)
}

// FleetReportHandler serves the daily fleet PDF report.
type FleetReportHandler struct {
	snapshots *dashapp.SnapshotService
	alerts    AlertStatsSource
}

// NewFleetReportHandler constructs a handler.
func NewFleetReportHandler(snapshots *dashapp.SnapshotService, alerts AlertStatsSource) (*FleetReportHandler, error) {
	if snapshots == nil {
		return nil, errors.New("fleet report: nil snapshot service")
	}
	return &FleetReportHandler{snapshots: snapshots, alerts: alerts}, nil
}

// ServeHTTP handles GET /api/v1/reports/fleet.
func (h *FleetReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snapshot, err := h.snapshots.Current(r.Context())
	if err != nil {
		http.Error(w, "snapshot error", http.StatusInternalServerError)
		return
	}
	var stats alerting.Stats
	if h.alerts != nil {
		stats, err = h.alerts.Stats(r.Context())
		if err != nil {
			http.Error(w, "alert stats error", http.StatusInternalServerError)
			return
		}
	}
	payload, err := BuildFleetPDF(snapshot, stats)
	if err != nil {
		http.Error(w, "build report error", http.StatusInternalServerError)
		return
	}
	filename := "fleet-" + snapshot.Timestamp.Format("20060102") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(payload)
}

// BuildFleetPDF renders the fleet status report.
func BuildFleetPDF(snapshot *dashboard.Snapshot, stats alerting.Stats) ([]byte, error) {
	if snapshot == nil {
		return nil, errors.New("fleet report: nil snapshot")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Fleet Status Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", snapshot.Timestamp.Format(time.RFC3339)))
	pdf.Ln(8)

	summary := snapshot.Summary
	pdf.Cell(0, 6, fmt.Sprintf("Total power: %.2f MW of %.2f MW planned", summary.TotalPowerMW, summary.TotalPlannedMW))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fleet efficiency: %.1f%%", summary.Efficiency))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Current loss rate: %.0f RUB/h", summary.CurrentLoss))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Engines: %d online, %d warning, %d error of %d",
		summary.EnginesOnline, summary.EnginesWarning, summary.EnginesError, summary.EnginesTotal))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Alerts: %d active, %d acknowledged, %d critical",
		stats.Active, stats.Acknowledged, stats.Critical))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 6, "Engine")
	pdf.Cell(25, 6, "Status")
	pdf.Cell(30, 6, "Power (kW)")
	pdf.Cell(30, 6, "Temp (C)")
	pdf.Cell(35, 6, "Profit (RUB/h)")
	pdf.Cell(30, 6, "Efficiency")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for _, engine := range snapshot.Engines {
		pdf.Cell(30, 6, engine.ID)
		pdf.Cell(25, 6, engine.Status)
		pdf.Cell(30, 6, fmt.Sprintf("%.0f", engine.PowerKW))
		pdf.Cell(30, 6, fmt.Sprintf("%.0f", engine.TempExhaust))
		pdf.Cell(35, 6, fmt.Sprintf("%.0f", engine.ProfitRate))
		pdf.Cell(30, 6, fmt.Sprintf("%.1f%%", engine.Efficiency))
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
