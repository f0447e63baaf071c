package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"energyguard/internal/maintenance/application"
)

// ForecastHandler serves maintenance forecast APIs.
type ForecastHandler struct {
	forecasts *application.ForecastService
}

// NewForecastHandler constructs a handler.
func NewForecastHandler(forecasts *application.ForecastService) (*ForecastHandler, error) {
	if forecasts == nil {
		return nil, errors.New("forecast handler: nil service")
	}
	return &ForecastHandler{forecasts: forecasts}, nil
}

// ServeHTTP routes maintenance endpoints.
func (h *ForecastHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/maintenance/forecast":
		h.respondList(w, r, false)
	case "/api/v1/maintenance/urgent":
		h.respondList(w, r, true)
	case "/api/v1/maintenance/budget":
		h.respondBudget(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ForecastHandler) respondList(w http.ResponseWriter, r *http.Request, urgentOnly bool) {
	var (
		forecasts any
		err       error
	)
	if urgentOnly {
		forecasts, err = h.forecasts.Urgent(r.Context())
	} else {
		forecasts, err = h.forecasts.All(r.Context())
	}
	if err != nil {
		http.Error(w, "forecast error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(forecasts)
}

func (h *ForecastHandler) respondBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := h.forecasts.MonthlyBudget(r.Context())
	if err != nil {
		http.Error(w, "budget error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"monthly_budget": budget})
}
