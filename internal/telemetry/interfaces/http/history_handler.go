package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"energyguard/internal/telemetry/application"
)

// HistoryHandler serves per-engine telemetry history.
type HistoryHandler struct {
	service *application.IngestService
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(service *application.IngestService) (*HistoryHandler, error) {
	if service == nil {
		return nil, errors.New("telemetry history: nil service")
	}
	return &HistoryHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/telemetry/{engine_id}/history and
// GET /api/v1/telemetry/{engine_id}/averages.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/telemetry/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	engineID, view := parts[0], parts[1]
	if view != "history" && view != "averages" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	window := time.Hour
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 || hours > 168 {
			http.Error(w, "hours must be 1..168", http.StatusBadRequest)
			return
		}
		window = time.Duration(hours) * time.Hour
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be positive", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	if view == "averages" {
		avgPower, avgTemp, avgGas, err := h.service.Averages(r.Context(), engineID, window)
		if err != nil {
			http.Error(w, "query averages error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"engine_id":           engineID,
			"avg_power_kw":        avgPower,
			"avg_temp_exhaust":    avgTemp,
			"avg_gas_consumption": avgGas,
		})
		return
	}

	samples, err := h.service.History(r.Context(), engineID, window, limit)
	if err != nil {
		http.Error(w, "query history error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"engine_id": engineID,
		"samples":   samples,
	})
}
