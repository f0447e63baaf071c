package maintenance

import "time"

// Service intervals and base costs in engine hours and rubles.
const (
	MinorServiceIntervalHours = 500
	MajorServiceIntervalHours = 2000
	OverhaulIntervalHours     = 8000
	MinorServiceCostRub       = 50000.0
	MajorServiceCostRub       = 250000.0
	OverhaulCostRub           = 2000000.0
	serviceWindowHours        = 100
	CriticalUrgencyDays       = 3
	HighUrgencyDays           = 7
	MediumUrgencyDays         = 30
)

// Service types.
const (
	ServiceMinor    = "minor"
	ServiceMajor    = "major"
	ServiceOverhaul = "overhaul"
)

// Urgency levels.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// Forecast predicts the next service for one engine.
type Forecast struct {
	EngineID        string    `json:"engine_id"`
	Model           string    `json:"model"`
	TotalHours      int       `json:"total_hours"`
	ServiceType     string    `json:"service_type"`
	NextServiceDate time.Time `json:"next_service_date"`
	HoursRemaining  int       `json:"hours_remaining"`
	DaysRemaining   int       `json:"days_remaining"`
	EstimatedCost   float64   `json:"estimated_cost"`
	Urgency         string    `json:"urgency"`
}

// NextServiceType picks the upcoming service from the position in the
// overhaul cycle: an overhaul or major service due within its window takes
// precedence over a minor one.
func NextServiceType(totalHours int) string {
	hoursInCycle := totalHours % OverhaulIntervalHours
	switch {
	case hoursInCycle >= OverhaulIntervalHours-serviceWindowHours:
		return ServiceOverhaul
	case hoursInCycle%MajorServiceIntervalHours >= MajorServiceIntervalHours-serviceWindowHours:
		return ServiceMajor
	default:
		return ServiceMinor
	}
}

// ServiceCost returns the base cost for a service type.
func ServiceCost(serviceType string) float64 {
	switch serviceType {
	case ServiceOverhaul:
		return OverhaulCostRub
	case ServiceMajor:
		return MajorServiceCostRub
	default:
		return MinorServiceCostRub
	}
}

// UrgencyForDays maps remaining days to an urgency level.
func UrgencyForDays(days int) string {
	switch {
	case days < CriticalUrgencyDays:
		return UrgencyCritical
	case days < HighUrgencyDays:
		return UrgencyHigh
	case days < MediumUrgencyDays:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
