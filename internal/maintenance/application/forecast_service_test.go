package application

import (
	"context"
	"testing"
	"time"

	fleet "energyguard/internal/fleet/domain"
	maintenance "energyguard/internal/maintenance/domain"
)

var forecastAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type staticFleet []fleet.Engine

func (s staticFleet) List(context.Context) ([]fleet.Engine, error) { return s, nil }

type forecastClock struct{}

func (forecastClock) Now() time.Time { return forecastAt }

func engineWithHours(id string, hours int) fleet.Engine {
	return fleet.Engine{ID: id, Model: "J420", Status: fleet.StatusOK, TotalHours: hours}
}

func TestForecastServiceTypeWindows(t *testing.T) {
	cases := []struct {
		hours int
		want  string
	}{
		{100, maintenance.ServiceMinor},
		{1450, maintenance.ServiceMinor},
		{1899, maintenance.ServiceMinor},
		{1900, maintenance.ServiceMajor},
		{1980, maintenance.ServiceMajor},
		{3950, maintenance.ServiceMajor},
		{7900, maintenance.ServiceOverhaul},
		{7980, maintenance.ServiceOverhaul},
		{8000, maintenance.ServiceMinor},
	}
	for _, tc := range cases {
		f := Forecast(engineWithHours("gpu-1", tc.hours), forecastAt)
		if f.ServiceType != tc.want {
			t.Errorf("hours %d: service type = %s, want %s", tc.hours, f.ServiceType, tc.want)
		}
		if f.EstimatedCost != maintenance.ServiceCost(tc.want) {
			t.Errorf("hours %d: cost = %v, want %v", tc.hours, f.EstimatedCost, maintenance.ServiceCost(tc.want))
		}
	}
}

func TestForecastRemainingHoursAndDate(t *testing.T) {
	f := Forecast(engineWithHours("gpu-2", 1980), forecastAt)
	if f.HoursRemaining != 20 {
		t.Fatalf("hours remaining = %d, want 20", f.HoursRemaining)
	}
	if f.DaysRemaining != 0 {
		t.Fatalf("days remaining = %d, want 0", f.DaysRemaining)
	}
	if want := forecastAt.Add(20 * time.Hour); !f.NextServiceDate.Equal(want) {
		t.Fatalf("next service date = %v, want %v", f.NextServiceDate, want)
	}
}

func TestForecastUrgencyTiers(t *testing.T) {
	cases := []struct {
		hours int
		want  string
	}{
		{1980, maintenance.UrgencyCritical}, // 20h left, under 3 days
		{1850, maintenance.UrgencyHigh},     // 150h left, ~6 days
		{1450, maintenance.UrgencyMedium},   // 550h left, ~22 days
		{100, maintenance.UrgencyLow},       // 1900h left
	}
	for _, tc := range cases {
		f := Forecast(engineWithHours("gpu-1", tc.hours), forecastAt)
		if f.Urgency != tc.want {
			t.Errorf("hours %d: urgency = %s, want %s", tc.hours, f.Urgency, tc.want)
		}
	}
}

func TestForecastAllSortedBySoonest(t *testing.T) {
	fleetSource := staticFleet{
		engineWithHours("gpu-1", 1450),
		engineWithHours("gpu-2", 1980),
		engineWithHours("gpu-3", 100),
		engineWithHours("gpu-4", 1450),
	}
	service, err := NewForecastService(fleetSource, forecastClock{})
	if err != nil {
		t.Fatalf("new forecast service: %v", err)
	}

	forecasts, err := service.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	var got []string
	for _, f := range forecasts {
		got = append(got, f.EngineID)
	}
	want := []string{"gpu-2", "gpu-1", "gpu-4", "gpu-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestForecastUrgentFiltersLowAndMedium(t *testing.T) {
	fleetSource := staticFleet{
		engineWithHours("gpu-1", 1450), // medium
		engineWithHours("gpu-2", 1980), // critical
		engineWithHours("gpu-5", 1850), // high
		engineWithHours("gpu-6", 100),  // low
	}
	service, err := NewForecastService(fleetSource, forecastClock{})
	if err != nil {
		t.Fatalf("new forecast service: %v", err)
	}

	urgent, err := service.Urgent(context.Background())
	if err != nil {
		t.Fatalf("urgent: %v", err)
	}
	if len(urgent) != 2 {
		t.Fatalf("expected 2 urgent engines, got %d", len(urgent))
	}
	if urgent[0].EngineID != "gpu-2" || urgent[1].EngineID != "gpu-5" {
		t.Fatalf("unexpected urgent set: %+v", urgent)
	}
}

func TestForecastMonthlyBudget(t *testing.T) {
	fleetSource := staticFleet{
		engineWithHours("gpu-1", 1450), // minor in 550h
		engineWithHours("gpu-2", 1980), // major in 20h
		engineWithHours("gpu-3", 100),  // minor in 1900h, outside the month
	}
	service, err := NewForecastService(fleetSource, forecastClock{})
	if err != nil {
		t.Fatalf("new forecast service: %v", err)
	}

	budget, err := service.MonthlyBudget(context.Background())
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if want := maintenance.MajorServiceCostRub + maintenance.MinorServiceCostRub; budget != want {
		t.Fatalf("budget = %v, want %v", budget, want)
	}
}
