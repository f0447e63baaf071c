// Package memory provides in-process alerting repositories. They back unit
// tests and preserve the conditional-update semantics of the Postgres
// implementations.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	alerting "energyguard/internal/alerting/domain"
)

// AlertRepository is an in-memory alert store.
type AlertRepository struct {
	mu     sync.Mutex
	alerts map[string]*alerting.Alert
}

// NewAlertRepository constructs a repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{alerts: make(map[string]*alerting.Alert)}
}

// Insert stores a new alert.
func (r *AlertRepository) Insert(_ context.Context, alert *alerting.Alert) error {
	if alert == nil {
		return errors.New("alert repo: nil alert")
	}
	if err := alert.Validate(); err != nil {
		return err
	}
	clone := *alert
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.alerts[alert.ID]; exists {
		return errors.New("alert repo: duplicate id")
	}
	r.alerts[alert.ID] = &clone
	return nil
}

// GetByID returns a copy of the alert, or nil when missing.
func (r *AlertRepository) GetByID(_ context.Context, id string) (*alerting.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok {
		return nil, nil
	}
	clone := *alert
	return &clone, nil
}

// Acknowledge conditionally moves an active alert to acknowledged. The check
// and the write happen under one lock, mirroring the atomic conditional
// UPDATE of the Postgres repository.
func (r *AlertRepository) Acknowledge(_ context.Context, id, actor string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok || alert.Status != alerting.StatusActive {
		return false, nil
	}
	alert.Status = alerting.StatusAcknowledged
	alert.AcknowledgedAt = at
	alert.AcknowledgedBy = actor
	return true, nil
}

// Resolve conditionally moves an open alert to resolved, backfilling the
// acknowledger of record when the alert was never acknowledged.
func (r *AlertRepository) Resolve(_ context.Context, id, actor string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok || !alert.Open() {
		return false, nil
	}
	alert.Status = alerting.StatusResolved
	alert.ResolvedAt = at
	if alert.AcknowledgedBy == "" {
		alert.AcknowledgedBy = actor
	}
	if alert.AcknowledgedAt.IsZero() {
		alert.AcknowledgedAt = at
	}
	return true, nil
}

// List returns alerts matching the filters, newest first.
func (r *AlertRepository) List(_ context.Context, filters alerting.Filters) ([]alerting.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cutoff time.Time
	if filters.Hours > 0 {
		cutoff = time.Now().Add(-time.Duration(filters.Hours) * time.Hour)
	}

	var result []alerting.Alert
	for _, alert := range r.alerts {
		if filters.Severity != "" && alert.Severity != filters.Severity {
			continue
		}
		if filters.Status != "" && alert.Status != filters.Status {
			continue
		}
		if filters.EngineID != "" && alert.EngineID != filters.EngineID {
			continue
		}
		if !cutoff.IsZero() && alert.CreatedAt.Before(cutoff) {
			continue
		}
		result = append(result, *alert)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

// Stats counts alerts by status and severity.
func (r *AlertRepository) Stats(_ context.Context, resolvedSince time.Time) (alerting.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats alerting.Stats
	for _, alert := range r.alerts {
		stats.Total++
		switch alert.Status {
		case alerting.StatusActive:
			stats.Active++
			if alert.Severity == alerting.SeverityCritical {
				stats.Critical++
			}
			if alert.Severity == alerting.SeverityWarning {
				stats.Warning++
			}
		case alerting.StatusAcknowledged:
			stats.Acknowledged++
		case alerting.StatusResolved:
			if !alert.ResolvedAt.Before(resolvedSince) {
				stats.Resolved++
			}
		}
	}
	return stats, nil
}
