package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"energyguard/internal/dashboard/application"
)

// StatusHandler serves a one-shot dashboard snapshot and the broadcast state.
type StatusHandler struct {
	snapshots   *application.SnapshotService
	broadcaster *application.Broadcaster
}

// NewStatusHandler constructs a status handler.
func NewStatusHandler(snapshots *application.SnapshotService, broadcaster *application.Broadcaster) (*StatusHandler, error) {
	if snapshots == nil {
		return nil, errors.New("status handler: nil snapshot service")
	}
	return &StatusHandler{snapshots: snapshots, broadcaster: broadcaster}, nil
}

// ServeHTTP handles GET /api/v1/dashboard.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snapshot, err := h.snapshots.Current(r.Context())
	if err != nil {
		http.Error(w, "snapshot error", http.StatusInternalServerError)
		return
	}
	resp := map[string]any{"snapshot": snapshot}
	if h.broadcaster != nil {
		resp["broadcast"] = map[string]any{
			"state":       h.broadcaster.State(),
			"subscribers": h.broadcaster.Subscribers(),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
