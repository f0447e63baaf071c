package alerting

import (
	"errors"
	"time"

	telemetry "energyguard/internal/telemetry/domain"
)

// Operator compares a metric value against a rule threshold.
type Operator string

const (
	OperatorGreater        Operator = "gt"
	OperatorLess           Operator = "lt"
	OperatorGreaterOrEqual Operator = "gte"
	OperatorLessOrEqual    Operator = "lte"
	// OperatorEqual uses exact float equality. Continuous sensor metrics
	// essentially never compare equal, so this operator is retained for
	// interface completeness only.
	OperatorEqual Operator = "eq"
)

// Severity levels for rules and alerts.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// AlertRule defines a threshold condition on one telemetry metric, optionally
// scoped to one engine. An empty EngineID applies the rule to every engine.
type AlertRule struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	EngineID        string    `json:"engine_id,omitempty"`
	Metric          string    `json:"metric"`
	Operator        Operator  `json:"operator"`
	Threshold       float64   `json:"threshold"`
	DurationSeconds int       `json:"duration_seconds"`
	Severity        string    `json:"severity"`
	Enabled         bool      `json:"enabled"`
	NotifyEmail     bool      `json:"notify_email"`
	NotifySMS       bool      `json:"notify_sms"`
	NotifyPush      bool      `json:"notify_push"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks rule invariants.
func (r AlertRule) Validate() error {
	if r.Name == "" {
		return errors.New("alert rule: empty name")
	}
	if !telemetry.KnownMetric(r.Metric) {
		return errors.New("alert rule: unknown metric")
	}
	if !r.Operator.Valid() {
		return errors.New("alert rule: invalid operator")
	}
	if r.DurationSeconds < 0 {
		return errors.New("alert rule: negative duration")
	}
	if !ValidSeverity(r.Severity) {
		return errors.New("alert rule: invalid severity")
	}
	return nil
}

// AppliesTo returns true when the rule covers the given engine.
func (r AlertRule) AppliesTo(engineID string) bool {
	return r.EngineID == "" || r.EngineID == engineID
}

// Duration returns the debounce duration of the rule.
func (r AlertRule) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// Valid returns true when the operator is supported.
func (o Operator) Valid() bool {
	switch o {
	case OperatorGreater, OperatorLess, OperatorGreaterOrEqual, OperatorLessOrEqual, OperatorEqual:
		return true
	default:
		return false
	}
}

// Compare evaluates value against threshold.
func (o Operator) Compare(value, threshold float64) bool {
	switch o {
	case OperatorGreater:
		return value > threshold
	case OperatorLess:
		return value < threshold
	case OperatorGreaterOrEqual:
		return value >= threshold
	case OperatorLessOrEqual:
		return value <= threshold
	case OperatorEqual:
		return value == threshold
	default:
		return false
	}
}

// ValidSeverity returns true when severity is a known level.
func ValidSeverity(severity string) bool {
	switch severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	default:
		return false
	}
}
