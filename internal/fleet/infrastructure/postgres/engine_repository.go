package postgres

import (
	"context"
	"database/sql"
	"errors"

	fleet "energyguard/internal/fleet/domain"
)

// EngineRepository is a Postgres repository for the engine registry.
type EngineRepository struct {
	db *sql.DB
}

// NewEngineRepository constructs a repository.
func NewEngineRepository(db *sql.DB) *EngineRepository {
	return &EngineRepository{db: db}
}

// List returns all engines ordered by id.
func (r *EngineRepository) List(ctx context.Context) ([]fleet.Engine, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("engine repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, model, status, total_hours, planned_power_kw
FROM engines
ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fleet.Engine
	for rows.Next() {
		var engine fleet.Engine
		if err := rows.Scan(&engine.ID, &engine.Model, &engine.Status, &engine.TotalHours, &engine.PlannedPowerKW); err != nil {
			return nil, err
		}
		result = append(result, engine)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches one engine by id. A missing engine returns (nil, nil).
func (r *EngineRepository) Get(ctx context.Context, id string) (*fleet.Engine, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("engine repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, model, status, total_hours, planned_power_kw
FROM engines
WHERE id = $1`, id)

	var engine fleet.Engine
	if err := row.Scan(&engine.ID, &engine.Model, &engine.Status, &engine.TotalHours, &engine.PlannedPowerKW); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &engine, nil
}

// UpdateStatus writes the derived status for one engine.
func (r *EngineRepository) UpdateStatus(ctx context.Context, engineID, status string) error {
	if r == nil || r.db == nil {
		return errors.New("engine repo: nil db")
	}
	if !fleet.ValidStatus(status) {
		return errors.New("engine repo: invalid status")
	}
	_, err := r.db.ExecContext(ctx, `UPDATE engines SET status = $1 WHERE id = $2`, status, engineID)
	return err
}

// Upsert creates the engine when absent and leaves existing rows untouched,
// keeping startup seeding idempotent.
func (r *EngineRepository) Upsert(ctx context.Context, engine fleet.Engine) error {
	if r == nil || r.db == nil {
		return errors.New("engine repo: nil db")
	}
	if err := engine.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO engines (id, model, status, total_hours, planned_power_kw)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`,
		engine.ID, engine.Model, engine.Status, engine.TotalHours, engine.PlannedPowerKW)
	return err
}
