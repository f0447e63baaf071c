package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energyguard/internal/fleet/application"
	fleet "energyguard/internal/fleet/domain"
)

// EnginesHandler serves fleet read APIs.
type EnginesHandler struct {
	engines *application.EngineService
}

// NewEnginesHandler constructs a handler.
func NewEnginesHandler(engines *application.EngineService) (*EnginesHandler, error) {
	if engines == nil {
		return nil, errors.New("engines handler: nil service")
	}
	return &EnginesHandler{engines: engines}, nil
}

// ServeHTTP routes engine endpoints.
func (h *EnginesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path == "/api/v1/engines" {
		h.handleList(w, r)
		return
	}
	engineID := strings.TrimPrefix(r.URL.Path, "/api/v1/engines/")
	if engineID == "" || strings.Contains(engineID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.handleGet(w, r, engineID)
}

func (h *EnginesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	engines, err := h.engines.List(r.Context())
	if err != nil {
		http.Error(w, "query engines error", http.StatusInternalServerError)
		return
	}
	if engines == nil {
		engines = []fleet.Engine{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(engines)
}

func (h *EnginesHandler) handleGet(w http.ResponseWriter, r *http.Request, engineID string) {
	engine, err := h.engines.Get(r.Context(), engineID)
	if errors.Is(err, application.ErrNotFound) {
		http.Error(w, "engine not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query engine error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(engine)
}
