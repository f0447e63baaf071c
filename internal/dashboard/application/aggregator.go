package application

import (
	"math"
	"sort"
	"time"

	dashboard "energyguard/internal/dashboard/domain"
	events "energyguard/internal/events/domain"
	fleet "energyguard/internal/fleet/domain"
	telemetry "energyguard/internal/telemetry/domain"
)

// Aggregate builds a dashboard snapshot from fleet state and the latest
// telemetry per engine. It is a pure function: the same inputs always produce
// the same snapshot. Engines missing telemetry contribute zero readings.
func Aggregate(engines []fleet.Engine, latest map[string]telemetry.Sample, feed []events.Event, at time.Time) dashboard.Snapshot {
	metrics := make([]dashboard.EngineMetrics, 0, len(engines))
	for _, engine := range engines {
		sample := latest[engine.ID]
		metrics = append(metrics, engineMetrics(engine, sample))
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].ID < metrics[j].ID })

	return dashboard.Snapshot{
		Engines:   metrics,
		Summary:   summarize(metrics),
		Events:    feed,
		Timestamp: at.UTC(),
	}
}

func engineMetrics(engine fleet.Engine, sample telemetry.Sample) dashboard.EngineMetrics {
	return dashboard.EngineMetrics{
		ID:             engine.ID,
		Model:          engine.Model,
		Status:         engine.Status,
		TotalHours:     engine.TotalHours,
		PlannedPowerKW: engine.PlannedPowerKW,
		PowerKW:        sample.PowerKW,
		TempExhaust:    sample.TempExhaust,
		GasConsumption: sample.GasConsumption,
		Vibration:      sample.Vibration,
		GasPressure:    sample.GasPressure,
		ProfitRate:     profitRate(sample.PowerKW, sample.GasConsumption),
		Efficiency:     efficiency(sample.PowerKW, sample.GasConsumption),
	}
}

// profitRate is revenue at the power tariff minus fuel cost, per hour.
func profitRate(powerKW, gasConsumption float64) float64 {
	return powerKW*dashboard.TariffRubPerKWh - gasConsumption*dashboard.GasCostRubPerM3
}

// efficiency relates produced power to the gas burned to produce it, capped
// at 100. Zero gas flow means the engine is not running: efficiency 0.
func efficiency(powerKW, gasConsumption float64) float64 {
	if gasConsumption == 0 {
		return 0
	}
	return math.Min(100, powerKW/(gasConsumption*dashboard.EfficiencyGasFactor)*100)
}

func summarize(metrics []dashboard.EngineMetrics) dashboard.Summary {
	summary := dashboard.Summary{EnginesTotal: len(metrics)}
	for _, m := range metrics {
		summary.TotalPowerMW += m.PowerKW / 1000
		switch m.Status {
		case fleet.StatusOK:
			summary.EnginesOnline++
		case fleet.StatusWarning:
			summary.EnginesWarning++
		case fleet.StatusError:
			summary.EnginesError++
		}
	}
	summary.TotalPlannedMW = float64(len(metrics)) * dashboard.PlannedMWPerEngine
	if summary.TotalPlannedMW > 0 {
		summary.Efficiency = summary.TotalPowerMW / summary.TotalPlannedMW * 100
	}

	downtimeLoss := math.Max(0, summary.TotalPlannedMW-summary.TotalPowerMW) * dashboard.DowntimeTariffRub
	var inefficiencyLoss float64
	for _, m := range metrics {
		if m.Efficiency < dashboard.EfficiencyFloorPercent {
			inefficiencyLoss += dashboard.InefficiencyPenaltyRub
		}
	}
	summary.CurrentLoss = downtimeLoss + inefficiencyLoss
	return summary
}
