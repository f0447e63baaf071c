package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"energyguard/internal/alerting/application"
	alerting "energyguard/internal/alerting/domain"
)

// AlertExporter renders alert history as an XLSX workbook for shift reports.
type AlertExporter struct {
	alerts *application.AlertService
}

// NewAlertExporter constructs an exporter.
func NewAlertExporter(alerts *application.AlertService) (*AlertExporter, error) {
	if alerts == nil {
		return nil, errors.New("alert exporter: nil service")
	}
	return &AlertExporter{alerts: alerts}, nil
}

// ServeExport writes the filtered alert list as an XLSX attachment.
func (e *AlertExporter) ServeExport(w http.ResponseWriter, r *http.Request, filters alerting.Filters) {
	alerts, err := e.alerts.List(r.Context(), filters)
	if err != nil {
		http.Error(w, "query alerts error", http.StatusInternalServerError)
		return
	}
	payload, err := BuildAlertsXLSX(alerts)
	if err != nil {
		http.Error(w, "build export error", http.StatusInternalServerError)
		return
	}
	filename := "alerts-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(payload)
}

// BuildAlertsXLSX renders one sheet of alerts, newest first.
func BuildAlertsXLSX(alerts []alerting.Alert) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "alerts"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Engine", "Severity", "Status", "Title", "Metric",
		"Threshold", "Actual", "Created", "Acknowledged", "Acknowledged By", "Resolved"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)
	}

	for i, alert := range alerts {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), alert.ID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), alert.EngineID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), alert.Severity)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), alert.Status)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), alert.Title)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), alert.Metric)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), alert.Threshold)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), alert.ActualValue)
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), alert.CreatedAt.Format(time.RFC3339))
		if !alert.AcknowledgedAt.IsZero() {
			_ = f.SetCellValue(sheet, fmt.Sprintf("J%d", row), alert.AcknowledgedAt.Format(time.RFC3339))
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("K%d", row), alert.AcknowledgedBy)
		if !alert.ResolvedAt.IsZero() {
			_ = f.SetCellValue(sheet, fmt.Sprintf("L%d", row), alert.ResolvedAt.Format(time.RFC3339))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
