package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energyguard/internal/alerting/application"
	alerting "energyguard/internal/alerting/domain"
	"energyguard/internal/auth"
)

// RulesHandler exposes alert rule configuration APIs.
type RulesHandler struct {
	rules *application.RuleService
}

// NewRulesHandler constructs a handler.
func NewRulesHandler(rules *application.RuleService) (*RulesHandler, error) {
	if rules == nil {
		return nil, errors.New("rules handler: nil service")
	}
	return &RulesHandler{rules: rules}, nil
}

// ServeHTTP routes rule endpoints.
func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/rules" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case r.URL.Path == "/api/v1/rules" && r.Method == http.MethodPost:
		h.handleCreate(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/rules/"):
		h.handleByID(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *RulesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context())
	if err != nil {
		http.Error(w, "query rules error", http.StatusInternalServerError)
		return
	}
	if rules == nil {
		rules = []alerting.AlertRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *RulesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	var spec application.RuleSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	rule, err := h.rules.Create(r.Context(), spec, actor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *RulesHandler) handleByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/rules/")
	parts := strings.Split(path, "/")
	ruleID := parts[0]
	if ruleID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, ruleID)
			return
		case http.MethodPatch, http.MethodPut:
			h.handleUpdate(w, r, ruleID)
			return
		case http.MethodDelete:
			h.handleDelete(w, r, ruleID)
			return
		}
	}
	if len(parts) == 2 && parts[1] == "toggle" && r.Method == http.MethodPost {
		h.handleToggle(w, r, ruleID)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *RulesHandler) handleGet(w http.ResponseWriter, r *http.Request, ruleID string) {
	rule, err := h.rules.Get(r.Context(), ruleID)
	if errors.Is(err, alerting.ErrNotFound) {
		http.Error(w, "rule not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query rule error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *RulesHandler) handleUpdate(w http.ResponseWriter, r *http.Request, ruleID string) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	var update application.RuleUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	rule, err := h.rules.Update(r.Context(), ruleID, update, actor)
	if errors.Is(err, alerting.ErrNotFound) {
		http.Error(w, "rule not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *RulesHandler) handleToggle(w http.ResponseWriter, r *http.Request, ruleID string) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	ok, err := h.rules.Toggle(r.Context(), ruleID, actor)
	if err != nil {
		http.Error(w, "toggle rule error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "rule not found", http.StatusNotFound)
		return
	}
	rule, err := h.rules.Get(r.Context(), ruleID)
	if err != nil {
		http.Error(w, "query rule error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *RulesHandler) handleDelete(w http.ResponseWriter, r *http.Request, ruleID string) {
	actor := auth.ActorFromContext(r.Context())
	if actor == "" {
		http.Error(w, "actor required", http.StatusUnauthorized)
		return
	}
	ok, err := h.rules.Delete(r.Context(), ruleID, actor)
	if err != nil {
		http.Error(w, "delete rule error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "rule not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
