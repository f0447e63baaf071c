package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"energyguard/internal/alerting/application"
	alerting "energyguard/internal/alerting/domain"
	"energyguard/internal/auth"
)

// AlertsHandler exposes the alert read and lifecycle APIs.
type AlertsHandler struct {
	alerts *application.AlertService
	export *AlertExporter
}

// NewAlertsHandler constructs a handler. export may be nil to disable the
// XLSX download endpoint.
func NewAlertsHandler(alerts *application.AlertService, export *AlertExporter) (*AlertsHandler, error) {
	if alerts == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	return &AlertsHandler{alerts: alerts, export: export}, nil
}

// ServeHTTP routes alert endpoints.
func (h *AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/alerts" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case r.URL.Path == "/api/v1/alerts/stats" && r.Method == http.MethodGet:
		h.handleStats(w, r)
	case r.URL.Path == "/api/v1/alerts/export" && r.Method == http.MethodGet:
		h.handleExport(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/alerts/"):
		h.handleByID(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *AlertsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	alerts, err := h.alerts.List(r.Context(), filters)
	if err != nil {
		http.Error(w, "query alerts error", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []alerting.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *AlertsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alerts.Stats(r.Context())
	if err != nil {
		http.Error(w, "query stats error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AlertsHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.export == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.export.ServeExport(w, r, filters)
}

func (h *AlertsHandler) handleByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.Split(path, "/")
	alertID := parts[0]
	if alertID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, alertID)
		return
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "acknowledge":
			h.handleTransition(w, r, alertID, h.alerts.Acknowledge)
			return
		case "resolve":
			h.handleTransition(w, r, alertID, h.alerts.Resolve)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *AlertsHandler) handleGet(w http.ResponseWriter, r *http.Request, alertID string) {
	alert, err := h.alerts.Get(r.Context(), alertID)
	if errors.Is(err, alerting.ErrNotFound) {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query alert error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *AlertsHandler) handleTransition(
	w http.ResponseWriter,
	r *http.Request,
	alertID string,
	transition func(ctx context.Context, alertID, actorID string) (bool, error),
) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	ok, err := transition(r.Context(), alertID, actor)
	if errors.Is(err, alerting.ErrNotFound) {
		http.Error(w, "alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "update alert error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "alert state conflict", http.StatusConflict)
		return
	}
	alert, err := h.alerts.Get(r.Context(), alertID)
	if err != nil {
		http.Error(w, "query alert error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func parseFilters(r *http.Request) (alerting.Filters, error) {
	var filters alerting.Filters
	query := r.URL.Query()
	filters.Severity = query.Get("severity")
	filters.Status = query.Get("status")
	filters.EngineID = query.Get("engine_id")
	if raw := query.Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 || hours > 720 {
			return filters, errors.New("hours must be 1..720")
		}
		filters.Hours = hours
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filters, errors.New("limit must be positive")
		}
		filters.Limit = limit
	}
	return filters, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
