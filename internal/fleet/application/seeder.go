package application

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	fleet "energyguard/internal/fleet/domain"
)

// EngineWriter is the persistence surface for fleet seeding.
type EngineWriter interface {
	Upsert(ctx context.Context, engine fleet.Engine) error
}

// defaultFleet is the gas piston unit roster installed at the site.
var defaultFleet = []fleet.Engine{
	{ID: "gpu-1", Model: "Jenbacher J420", Status: fleet.StatusOK, TotalHours: 1450, PlannedPowerKW: fleet.PlannedPowerKW},
	{ID: "gpu-2", Model: "Jenbacher J420", Status: fleet.StatusOK, TotalHours: 1980, PlannedPowerKW: fleet.PlannedPowerKW},
	{ID: "gpu-3", Model: "Jenbacher J624", Status: fleet.StatusOK, TotalHours: 500, PlannedPowerKW: fleet.PlannedPowerKW},
	{ID: "gpu-4", Model: "Jenbacher J420", Status: fleet.StatusOK, TotalHours: 1200, PlannedPowerKW: fleet.PlannedPowerKW},
	{ID: "gpu-5", Model: "Jenbacher J420", Status: fleet.StatusOK, TotalHours: 1850, PlannedPowerKW: fleet.PlannedPowerKW},
	{ID: "gpu-6", Model: "Jenbacher J420", Status: fleet.StatusOK, TotalHours: 100, PlannedPowerKW: fleet.PlannedPowerKW},
}

// SeedEngines inserts the default fleet, skipping engines that already exist.
// Safe to run on every startup.
func SeedEngines(ctx context.Context, writer EngineWriter, logger zerolog.Logger) error {
	if writer == nil {
		return errors.New("fleet seeder: nil writer")
	}
	for _, engine := range defaultFleet {
		if err := writer.Upsert(ctx, engine); err != nil {
			return err
		}
	}
	logger.Info().Int("engines", len(defaultFleet)).Msg("fleet seeded")
	return nil
}
