package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energyguard/internal/auth"
	"energyguard/internal/workorders/application"
	workorders "energyguard/internal/workorders/domain"
)

// WorkOrdersHandler exposes the maintenance work order APIs.
type WorkOrdersHandler struct {
	orders *application.WorkOrderService
}

// NewWorkOrdersHandler constructs a handler.
func NewWorkOrdersHandler(orders *application.WorkOrderService) (*WorkOrdersHandler, error) {
	if orders == nil {
		return nil, errors.New("workorders handler: nil service")
	}
	return &WorkOrdersHandler{orders: orders}, nil
}

// ServeHTTP routes work order endpoints.
func (h *WorkOrdersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/workorders" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case r.URL.Path == "/api/v1/workorders" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case r.URL.Path == "/api/v1/workorders/stats" && r.Method == http.MethodGet:
		h.handleStats(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/workorders/"):
		h.handleByID(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *WorkOrdersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := workorders.Filters{
		Status:     query.Get("status"),
		EngineID:   query.Get("engine_id"),
		Priority:   query.Get("priority"),
		AssignedTo: query.Get("assigned_to"),
	}
	orders, err := h.orders.List(r.Context(), filters)
	if err != nil {
		http.Error(w, "query work orders error", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []workorders.WorkOrder{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *WorkOrdersHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		http.Error(w, "query stats error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *WorkOrdersHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	var spec application.WorkOrderSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	order, err := h.orders.Create(r.Context(), spec, actor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *WorkOrdersHandler) handleByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/workorders/")
	parts := strings.Split(path, "/")
	orderID := parts[0]
	if orderID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, orderID)
		return
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "status":
			h.handleTransition(w, r, orderID)
			return
		case "assign":
			h.handleAssign(w, r, orderID)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *WorkOrdersHandler) handleGet(w http.ResponseWriter, r *http.Request, orderID string) {
	order, err := h.orders.Get(r.Context(), orderID)
	if errors.Is(err, workorders.ErrNotFound) {
		http.Error(w, "work order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query work order error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *WorkOrdersHandler) handleTransition(w http.ResponseWriter, r *http.Request, orderID string) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	order, err := h.orders.Transition(r.Context(), orderID, req.Status, actor)
	if errors.Is(err, workorders.ErrNotFound) {
		http.Error(w, "work order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *WorkOrdersHandler) handleAssign(w http.ResponseWriter, r *http.Request, orderID string) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	var req struct {
		AssignedTo string `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	order, err := h.orders.Assign(r.Context(), orderID, req.AssignedTo, actor)
	if errors.Is(err, workorders.ErrNotFound) {
		http.Error(w, "work order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
