package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	workorders "energyguard/internal/workorders/domain"
)

// WorkOrderRepository is a Postgres repository for maintenance work orders.
type WorkOrderRepository struct {
	db *sql.DB
}

// NewWorkOrderRepository constructs a repository.
func NewWorkOrderRepository(db *sql.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

const workOrderColumns = `id, engine_id, title, description, status, priority,
	assigned_to, created_by, created_at, updated_at, completed_at`

// Insert stores a new work order.
func (r *WorkOrderRepository) Insert(ctx context.Context, order *workorders.WorkOrder) error {
	if r == nil || r.db == nil {
		return errors.New("workorder repo: nil db")
	}
	if order == nil {
		return errors.New("workorder repo: nil work order")
	}
	if err := order.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO work_orders (
	id, engine_id, title, description, status, priority,
	assigned_to, created_by, created_at, updated_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID,
		nullableString(order.EngineID),
		order.Title,
		nullableString(order.Description),
		order.Status,
		order.Priority,
		nullableString(order.AssignedTo),
		nullableString(order.CreatedBy),
		order.CreatedAt,
		order.UpdatedAt,
		nullableTime(order.CompletedAt),
	)
	return err
}

// GetByID fetches one work order. A missing order returns (nil, nil).
func (r *WorkOrderRepository) GetByID(ctx context.Context, id string) (*workorders.WorkOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("workorder repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1`, id)
	return scanWorkOrder(row)
}

// Update overwrites an existing work order.
func (r *WorkOrderRepository) Update(ctx context.Context, order *workorders.WorkOrder) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("workorder repo: nil db")
	}
	if order == nil {
		return false, errors.New("workorder repo: nil work order")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE work_orders
SET engine_id = $1, title = $2, description = $3, status = $4, priority = $5,
	assigned_to = $6, updated_at = $7, completed_at = $8
WHERE id = $9`,
		nullableString(order.EngineID),
		order.Title,
		nullableString(order.Description),
		order.Status,
		order.Priority,
		nullableString(order.AssignedTo),
		order.UpdatedAt,
		nullableTime(order.CompletedAt),
		order.ID,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// List returns work orders matching the filters, newest first.
func (r *WorkOrderRepository) List(ctx context.Context, filters workorders.Filters) ([]workorders.WorkOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("workorder repo: nil db")
	}
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE 1=1`
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.Status != "" {
		query += " AND status = " + arg(filters.Status)
	}
	if filters.EngineID != "" {
		query += " AND engine_id = " + arg(filters.EngineID)
	}
	if filters.Priority != "" {
		query += " AND priority = " + arg(filters.Priority)
	}
	if filters.AssignedTo != "" {
		query += " AND assigned_to = " + arg(filters.AssignedTo)
	}
	query += " ORDER BY created_at DESC LIMIT 100"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []workorders.WorkOrder
	for rows.Next() {
		order, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Stats counts work orders by status in one pass.
func (r *WorkOrderRepository) Stats(ctx context.Context) (workorders.Stats, error) {
	if r == nil || r.db == nil {
		return workorders.Stats{}, errors.New("workorder repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'open'),
	COUNT(*) FILTER (WHERE status = 'in_progress'),
	COUNT(*) FILTER (WHERE status = 'completed'),
	COUNT(*) FILTER (WHERE priority = 'critical' AND status != 'completed')
FROM work_orders`)

	var stats workorders.Stats
	if err := row.Scan(&stats.Total, &stats.Open, &stats.InProgress, &stats.Completed, &stats.Critical); err != nil {
		return workorders.Stats{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (*workorders.WorkOrder, error) {
	var order workorders.WorkOrder
	var engineID, description, assignedTo, createdBy sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(
		&order.ID,
		&engineID,
		&order.Title,
		&description,
		&order.Status,
		&order.Priority,
		&assignedTo,
		&createdBy,
		&order.CreatedAt,
		&order.UpdatedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	order.EngineID = engineID.String
	order.Description = description.String
	order.AssignedTo = assignedTo.String
	order.CreatedBy = createdBy.String
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	if completedAt.Valid {
		order.CompletedAt = completedAt.Time.UTC()
	}
	return &order, nil
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
