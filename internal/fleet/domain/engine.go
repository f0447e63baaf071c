package fleet

import "errors"

// Engine status values derived from exhaust temperature thresholds.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Temperature thresholds for engine status derivation, in degrees Celsius.
const (
	CriticalTempThreshold = 520.0
	WarningTempThreshold  = 500.0
)

// PlannedPowerKW is the planned output per engine when no per-engine plan exists.
const PlannedPowerKW = 1200.0

// Engine represents a gas-engine generator unit in the fleet registry.
type Engine struct {
	ID             string  `json:"id"`
	Model          string  `json:"model"`
	Status         string  `json:"status"`
	TotalHours     int     `json:"total_hours"`
	PlannedPowerKW float64 `json:"planned_power_kw"`
}

// Validate checks engine invariants.
func (e Engine) Validate() error {
	if e.ID == "" {
		return errors.New("engine: empty id")
	}
	if e.Model == "" {
		return errors.New("engine: empty model")
	}
	if !ValidStatus(e.Status) {
		return errors.New("engine: invalid status")
	}
	if e.TotalHours < 0 {
		return errors.New("engine: negative total hours")
	}
	return nil
}

// ValidStatus returns true when status is a known engine status.
func ValidStatus(status string) bool {
	switch status {
	case StatusOK, StatusWarning, StatusError:
		return true
	default:
		return false
	}
}

// StatusForExhaustTemp derives engine status from exhaust temperature.
func StatusForExhaustTemp(temp float64) string {
	switch {
	case temp > CriticalTempThreshold:
		return StatusError
	case temp > WarningTempThreshold:
		return StatusWarning
	default:
		return StatusOK
	}
}
