package dashboard

import (
	"time"

	events "energyguard/internal/events/domain"
)

// Economics constants used by the aggregator.
const (
	TariffRubPerKWh     = 4.5
	GasCostRubPerM3     = 6.0
	PlannedMWPerEngine  = 1.2
	EfficiencyGasFactor = 4.0
	// DowntimeTariffRub is charged per MW of shortfall against plan.
	DowntimeTariffRub = 5000.0
	// InefficiencyPenaltyRub applies per engine running below the floor.
	InefficiencyPenaltyRub = 500.0
	EfficiencyFloorPercent = 40.0
)

// EngineMetrics is a fleet engine joined with its latest telemetry and
// derived economics.
type EngineMetrics struct {
	ID             string  `json:"id"`
	Model          string  `json:"model"`
	Status         string  `json:"status"`
	TotalHours     int     `json:"total_hours"`
	PlannedPowerKW float64 `json:"planned_power_kw"`
	PowerKW        float64 `json:"power_kw"`
	TempExhaust    float64 `json:"temp"`
	GasConsumption float64 `json:"gas_consumption"`
	Vibration      float64 `json:"vibration"`
	GasPressure    float64 `json:"gas_pressure"`
	ProfitRate     float64 `json:"profit_rate"`
	Efficiency     float64 `json:"efficiency"`
}

// Summary aggregates fleet-wide figures.
type Summary struct {
	TotalPowerMW   float64 `json:"totalPowerMW"`
	TotalPlannedMW float64 `json:"totalPlannedMW"`
	Efficiency     float64 `json:"efficiency"`
	CurrentLoss    float64 `json:"currentLoss"`
	EnginesOnline  int     `json:"enginesOnline"`
	EnginesTotal   int     `json:"enginesTotal"`
	EnginesWarning int     `json:"enginesWarning"`
	EnginesError   int     `json:"enginesError"`
}

// Snapshot is a fully-computed, immutable view of fleet-wide dashboard state
// at one instant. A new snapshot is published atomically; snapshots are never
// mutated in place.
type Snapshot struct {
	Engines   []EngineMetrics `json:"engines"`
	Summary   Summary         `json:"summary"`
	Events    []events.Event  `json:"events"`
	Timestamp time.Time       `json:"timestamp"`
}
