package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	telemetry "energyguard/internal/telemetry/domain"
)

// TelemetryRepository is a Postgres repository for the append-only telemetry
// time series.
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository constructs a repository.
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// Insert appends one sample.
func (r *TelemetryRepository) Insert(ctx context.Context, sample telemetry.Sample) error {
	if r == nil || r.db == nil {
		return errors.New("telemetry repo: nil db")
	}
	if err := sample.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO telemetry (time, engine_id, power_kw, temp_exhaust, gas_consumption, vibration, gas_pressure)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sample.Time,
		sample.EngineID,
		sample.PowerKW,
		sample.TempExhaust,
		sample.GasConsumption,
		sample.Vibration,
		sample.GasPressure,
	)
	return err
}

// LatestByEngine returns the newest sample per engine. A LATERAL join does
// one index lookup per engine instead of sorting the whole series.
func (r *TelemetryRepository) LatestByEngine(ctx context.Context) (map[string]telemetry.Sample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("telemetry repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT e.id,
	COALESCE(t.time, to_timestamp(0)),
	COALESCE(t.power_kw, 0),
	COALESCE(t.temp_exhaust, 0),
	COALESCE(t.gas_consumption, 0),
	COALESCE(t.vibration, 0),
	COALESCE(t.gas_pressure, 0)
FROM engines e
LEFT JOIN LATERAL (
	SELECT time, power_kw, temp_exhaust, gas_consumption, vibration, gas_pressure
	FROM telemetry
	WHERE engine_id = e.id
	ORDER BY time DESC
	LIMIT 1
) t ON true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]telemetry.Sample)
	for rows.Next() {
		var sample telemetry.Sample
		if err := rows.Scan(
			&sample.EngineID,
			&sample.Time,
			&sample.PowerKW,
			&sample.TempExhaust,
			&sample.GasConsumption,
			&sample.Vibration,
			&sample.GasPressure,
		); err != nil {
			return nil, err
		}
		sample.Time = sample.Time.UTC()
		result[sample.EngineID] = sample
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Latest returns the newest sample for one engine, or (nil, nil) when the
// engine has no telemetry yet.
func (r *TelemetryRepository) Latest(ctx context.Context, engineID string) (*telemetry.Sample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("telemetry repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT time, engine_id, power_kw, temp_exhaust, gas_consumption, vibration, gas_pressure
FROM telemetry
WHERE engine_id = $1
ORDER BY time DESC
LIMIT 1`, engineID)

	var sample telemetry.Sample
	if err := row.Scan(
		&sample.Time,
		&sample.EngineID,
		&sample.PowerKW,
		&sample.TempExhaust,
		&sample.GasConsumption,
		&sample.Vibration,
		&sample.GasPressure,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	sample.Time = sample.Time.UTC()
	return &sample, nil
}

// History returns samples within the trailing window, oldest first, capped at
// limit rows.
func (r *TelemetryRepository) History(ctx context.Context, engineID string, window time.Duration, limit int) ([]telemetry.Sample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("telemetry repo: nil db")
	}
	if limit <= 0 {
		limit = 300
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT time, engine_id, power_kw, temp_exhaust, gas_consumption, vibration, gas_pressure
FROM (
	SELECT time, engine_id, power_kw, temp_exhaust, gas_consumption, vibration, gas_pressure
	FROM telemetry
	WHERE engine_id = $1 AND time >= $2
	ORDER BY time DESC
	LIMIT $3
) recent
ORDER BY time ASC`, engineID, time.Now().Add(-window), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []telemetry.Sample
	for rows.Next() {
		var sample telemetry.Sample
		if err := rows.Scan(
			&sample.Time,
			&sample.EngineID,
			&sample.PowerKW,
			&sample.TempExhaust,
			&sample.GasConsumption,
			&sample.Vibration,
			&sample.GasPressure,
		); err != nil {
			return nil, err
		}
		sample.Time = sample.Time.UTC()
		result = append(result, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Averages returns mean power, exhaust temperature and gas consumption over
// the trailing window.
func (r *TelemetryRepository) Averages(ctx context.Context, engineID string, window time.Duration) (avgPower, avgTemp, avgGas float64, err error) {
	if r == nil || r.db == nil {
		return 0, 0, 0, errors.New("telemetry repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT COALESCE(AVG(power_kw), 0), COALESCE(AVG(temp_exhaust), 0), COALESCE(AVG(gas_consumption), 0)
FROM telemetry
WHERE engine_id = $1 AND time >= $2`, engineID, time.Now().Add(-window))
	if err := row.Scan(&avgPower, &avgTemp, &avgGas); err != nil {
		return 0, 0, 0, err
	}
	return avgPower, avgTemp, avgGas, nil
}
