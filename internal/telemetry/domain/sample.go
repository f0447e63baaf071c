package telemetry

import (
	"errors"
	"time"
)

// Metric names matching sample fields. Alert rules reference these symbolically.
const (
	MetricPowerKW        = "power_kw"
	MetricTempExhaust    = "temp_exhaust"
	MetricGasConsumption = "gas_consumption"
	MetricVibration      = "vibration"
	MetricGasPressure    = "gas_pressure"
)

// Sample is one immutable telemetry reading for an engine.
type Sample struct {
	EngineID       string    `json:"engine_id"`
	Time           time.Time `json:"time"`
	PowerKW        float64   `json:"power_kw"`
	TempExhaust    float64   `json:"temp_exhaust"`
	GasConsumption float64   `json:"gas_consumption"`
	Vibration      float64   `json:"vibration"`
	GasPressure    float64   `json:"gas_pressure"`
}

// Validate checks sample invariants.
func (s Sample) Validate() error {
	if s.EngineID == "" {
		return errors.New("telemetry sample: empty engine id")
	}
	if s.Time.IsZero() {
		return errors.New("telemetry sample: zero timestamp")
	}
	return nil
}

// MetricValue returns the value of the named metric. The second return is
// false for unknown metric names.
func (s Sample) MetricValue(metric string) (float64, bool) {
	switch metric {
	case MetricPowerKW:
		return s.PowerKW, true
	case MetricTempExhaust:
		return s.TempExhaust, true
	case MetricGasConsumption:
		return s.GasConsumption, true
	case MetricVibration:
		return s.Vibration, true
	case MetricGasPressure:
		return s.GasPressure, true
	default:
		return 0, false
	}
}

// KnownMetric returns true when metric names a sample field.
func KnownMetric(metric string) bool {
	_, ok := Sample{}.MetricValue(metric)
	return ok
}
