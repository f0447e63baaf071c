package application

import (
	"context"
	"errors"
	"sort"
	"time"

	fleet "energyguard/internal/fleet/domain"
	maintenance "energyguard/internal/maintenance/domain"
)

// EngineSource lists the fleet.
type EngineSource interface {
	List(ctx context.Context) ([]fleet.Engine, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ForecastService predicts upcoming engine services from accumulated hours.
type ForecastService struct {
	engines EngineSource
	clock   Clock
}

// NewForecastService constructs a service.
func NewForecastService(engines EngineSource, clock Clock) (*ForecastService, error) {
	if engines == nil {
		return nil, errors.New("forecast service: nil engine source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ForecastService{engines: engines, clock: clock}, nil
}

// Forecast computes the maintenance forecast for one engine at the given
// instant. Engines are assumed to run continuously, so remaining hours map
// directly onto calendar time.
func Forecast(engine fleet.Engine, at time.Time) maintenance.Forecast {
	hoursRemaining := maintenance.MajorServiceIntervalHours - engine.TotalHours%maintenance.MajorServiceIntervalHours
	daysRemaining := hoursRemaining / 24
	serviceType := maintenance.NextServiceType(engine.TotalHours)
	return maintenance.Forecast{
		EngineID:        engine.ID,
		Model:           engine.Model,
		TotalHours:      engine.TotalHours,
		ServiceType:     serviceType,
		NextServiceDate: at.UTC().Add(time.Duration(hoursRemaining) * time.Hour),
		HoursRemaining:  hoursRemaining,
		DaysRemaining:   daysRemaining,
		EstimatedCost:   maintenance.ServiceCost(serviceType),
		Urgency:         maintenance.UrgencyForDays(daysRemaining),
	}
}

// All returns forecasts for the whole fleet, soonest service first.
func (s *ForecastService) All(ctx context.Context) ([]maintenance.Forecast, error) {
	engines, err := s.engines.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	forecasts := make([]maintenance.Forecast, 0, len(engines))
	for _, engine := range engines {
		forecasts = append(forecasts, Forecast(engine, now))
	}
	sort.Slice(forecasts, func(i, j int) bool {
		if forecasts[i].HoursRemaining != forecasts[j].HoursRemaining {
			return forecasts[i].HoursRemaining < forecasts[j].HoursRemaining
		}
		return forecasts[i].EngineID < forecasts[j].EngineID
	})
	return forecasts, nil
}

// Urgent returns engines needing attention within the high urgency window.
func (s *ForecastService) Urgent(ctx context.Context) ([]maintenance.Forecast, error) {
	forecasts, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var urgent []maintenance.Forecast
	for _, f := range forecasts {
		if f.Urgency == maintenance.UrgencyCritical || f.Urgency == maintenance.UrgencyHigh {
			urgent = append(urgent, f)
		}
	}
	return urgent, nil
}

// MonthlyBudget sums estimated costs for services due within 30 days.
func (s *ForecastService) MonthlyBudget(ctx context.Context) (float64, error) {
	forecasts, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	var budget float64
	for _, f := range forecasts {
		if f.HoursRemaining <= 30*24 {
			budget += f.EstimatedCost
		}
	}
	return budget, nil
}
