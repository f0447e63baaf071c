package alerting

import (
	"errors"
	"time"
)

// Alert lifecycle states. Transitions are active -> acknowledged -> resolved
// or active -> resolved; resolved is terminal.
const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// ErrNotFound is returned when a referenced alert or rule does not exist.
var ErrNotFound = errors.New("alerting: not found")

// Alert is a persisted alert lifecycle record. Alerts are never hard-deleted.
type Alert struct {
	ID             string    `json:"id"`
	EngineID       string    `json:"engine_id,omitempty"`
	RuleID         string    `json:"rule_id,omitempty"`
	Severity       string    `json:"severity"`
	Status         string    `json:"status"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Metric         string    `json:"metric,omitempty"`
	Threshold      float64   `json:"threshold"`
	ActualValue    float64   `json:"actual_value"`
	CreatedAt      time.Time `json:"created_at"`
	AcknowledgedAt time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt     time.Time `json:"resolved_at,omitempty"`
	AcknowledgedBy string    `json:"acknowledged_by,omitempty"`
}

// Validate checks alert invariants.
func (a Alert) Validate() error {
	if a.ID == "" {
		return errors.New("alert: empty id")
	}
	if !ValidSeverity(a.Severity) {
		return errors.New("alert: invalid severity")
	}
	if !ValidStatus(a.Status) {
		return errors.New("alert: invalid status")
	}
	if a.Title == "" {
		return errors.New("alert: empty title")
	}
	return nil
}

// Open returns true while the alert awaits resolution.
func (a Alert) Open() bool {
	return a.Status == StatusActive || a.Status == StatusAcknowledged
}

// ValidStatus returns true when status is a known alert status.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusAcknowledged, StatusResolved:
		return true
	default:
		return false
	}
}

// Filters narrows alert list queries. Zero values mean "no filter".
type Filters struct {
	Severity string
	Status   string
	EngineID string
	Hours    int
	Limit    int
}

// Stats summarises alert counts for the dashboard.
type Stats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Acknowledged int `json:"acknowledged"`
	Resolved     int `json:"resolved"`
	Critical     int `json:"critical"`
	Warning      int `json:"warning"`
}
