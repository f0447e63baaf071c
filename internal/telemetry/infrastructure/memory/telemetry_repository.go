// Package memory provides an in-process telemetry store for tests.
package memory

import (
	"context"
	"sync"
	"time"

	telemetry "energyguard/internal/telemetry/domain"
)

// TelemetryRepository is an in-memory telemetry store keeping per-engine
// sample history in arrival order.
type TelemetryRepository struct {
	mu      sync.RWMutex
	samples map[string][]telemetry.Sample
}

// NewTelemetryRepository constructs a repository.
func NewTelemetryRepository() *TelemetryRepository {
	return &TelemetryRepository{samples: make(map[string][]telemetry.Sample)}
}

// Insert appends one sample.
func (r *TelemetryRepository) Insert(_ context.Context, sample telemetry.Sample) error {
	if err := sample.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.samples[sample.EngineID] = append(r.samples[sample.EngineID], sample)
	r.mu.Unlock()
	return nil
}

// LatestByEngine returns the newest sample per engine.
func (r *TelemetryRepository) LatestByEngine(_ context.Context) (map[string]telemetry.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]telemetry.Sample, len(r.samples))
	for engineID, history := range r.samples {
		latest := history[0]
		for _, sample := range history[1:] {
			if sample.Time.After(latest.Time) {
				latest = sample
			}
		}
		result[engineID] = latest
	}
	return result, nil
}

// Latest returns the newest sample for one engine, or nil.
func (r *TelemetryRepository) Latest(_ context.Context, engineID string) (*telemetry.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	history := r.samples[engineID]
	if len(history) == 0 {
		return nil, nil
	}
	latest := history[0]
	for _, sample := range history[1:] {
		if sample.Time.After(latest.Time) {
			latest = sample
		}
	}
	return &latest, nil
}

// History returns samples within the trailing window, oldest first.
func (r *TelemetryRepository) History(_ context.Context, engineID string, window time.Duration, limit int) ([]telemetry.Sample, error) {
	cutoff := time.Now().Add(-window)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []telemetry.Sample
	for _, sample := range r.samples[engineID] {
		if sample.Time.Before(cutoff) {
			continue
		}
		result = append(result, sample)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Averages returns mean power, exhaust temperature and gas consumption over
// the trailing window.
func (r *TelemetryRepository) Averages(_ context.Context, engineID string, window time.Duration) (avgPower, avgTemp, avgGas float64, err error) {
	cutoff := time.Now().Add(-window)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int
	for _, sample := range r.samples[engineID] {
		if sample.Time.Before(cutoff) {
			continue
		}
		avgPower += sample.PowerKW
		avgTemp += sample.TempExhaust
		avgGas += sample.GasConsumption
		n++
	}
	if n == 0 {
		return 0, 0, 0, nil
	}
	return avgPower / float64(n), avgTemp / float64(n), avgGas / float64(n), nil
}
