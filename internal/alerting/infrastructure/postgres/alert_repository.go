package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	alerting "energyguard/internal/alerting/domain"
)

// AlertRepository is a Postgres repository for alert lifecycle records.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert stores a new alert.
func (r *AlertRepository) Insert(ctx context.Context, alert *alerting.Alert) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	if alert == nil {
		return errors.New("alert repo: nil alert")
	}
	if err := alert.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO alerts (
	id, engine_id, rule_id, severity, status, title, message, metric,
	threshold, actual_value, created_at, acknowledged_at, resolved_at, acknowledged_by
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8,
	$9, $10, $11, $12, $13, $14
)`,
		alert.ID,
		nullableString(alert.EngineID),
		nullableString(alert.RuleID),
		alert.Severity,
		alert.Status,
		alert.Title,
		alert.Message,
		nullableString(alert.Metric),
		alert.Threshold,
		alert.ActualValue,
		alert.CreatedAt,
		nullableTime(alert.AcknowledgedAt),
		nullableTime(alert.ResolvedAt),
		nullableString(alert.AcknowledgedBy),
	)
	return err
}

// GetByID fetches an alert by id. A missing alert returns (nil, nil).
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alerting.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, engine_id, rule_id, severity, status, title, message, metric,
	threshold, actual_value, created_at, acknowledged_at, resolved_at, acknowledged_by
FROM alerts
WHERE id = $1`, id)
	return scanAlert(row)
}

// Acknowledge is an atomic conditional update: it succeeds only while the
// alert is still active, so concurrent acknowledgers cannot both win.
func (r *AlertRepository) Acknowledge(ctx context.Context, id, actor string, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("alert repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alerts
SET status = $1, acknowledged_at = $2, acknowledged_by = $3
WHERE id = $4 AND status = $5`,
		alerting.StatusAcknowledged, at, actor, id, alerting.StatusActive)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

// Resolve is an atomic conditional update from active or acknowledged to
// resolved. COALESCE backfills the acknowledger of record for alerts resolved
// without a prior acknowledge.
func (r *AlertRepository) Resolve(ctx context.Context, id, actor string, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("alert repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alerts
SET status = $1,
	resolved_at = $2,
	acknowledged_at = COALESCE(acknowledged_at, $2),
	acknowledged_by = COALESCE(acknowledged_by, $3)
WHERE id = $4 AND status IN ($5, $6)`,
		alerting.StatusResolved, at, actor, id, alerting.StatusActive, alerting.StatusAcknowledged)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

// List returns alerts matching the filters, newest first.
func (r *AlertRepository) List(ctx context.Context, filters alerting.Filters) ([]alerting.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	query := `
SELECT id, engine_id, rule_id, severity, status, title, message, metric,
	threshold, actual_value, created_at, acknowledged_at, resolved_at, acknowledged_by
FROM alerts
WHERE 1=1`
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return placeholder(len(args))
	}
	if filters.Severity != "" {
		query += " AND severity = " + arg(filters.Severity)
	}
	if filters.Status != "" {
		query += " AND status = " + arg(filters.Status)
	}
	if filters.EngineID != "" {
		query += " AND engine_id = " + arg(filters.EngineID)
	}
	if filters.Hours > 0 {
		query += " AND created_at >= " + arg(time.Now().Add(-time.Duration(filters.Hours)*time.Hour))
	}
	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerting.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Stats counts alerts by status and severity in one pass.
func (r *AlertRepository) Stats(ctx context.Context, resolvedSince time.Time) (alerting.Stats, error) {
	if r == nil || r.db == nil {
		return alerting.Stats{}, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'active'),
	COUNT(*) FILTER (WHERE status = 'acknowledged'),
	COUNT(*) FILTER (WHERE status = 'resolved' AND resolved_at >= $1),
	COUNT(*) FILTER (WHERE status = 'active' AND severity = 'critical'),
	COUNT(*) FILTER (WHERE status = 'active' AND severity = 'warning')
FROM alerts`, resolvedSince)

	var stats alerting.Stats
	if err := row.Scan(&stats.Total, &stats.Active, &stats.Acknowledged, &stats.Resolved, &stats.Critical, &stats.Warning); err != nil {
		return alerting.Stats{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*alerting.Alert, error) {
	var alert alerting.Alert
	var engineID, ruleID, metric, ackedBy sql.NullString
	var ackedAt, resolvedAt sql.NullTime
	if err := row.Scan(
		&alert.ID,
		&engineID,
		&ruleID,
		&alert.Severity,
		&alert.Status,
		&alert.Title,
		&alert.Message,
		&metric,
		&alert.Threshold,
		&alert.ActualValue,
		&alert.CreatedAt,
		&ackedAt,
		&resolvedAt,
		&ackedBy,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	alert.CreatedAt = alert.CreatedAt.UTC()
	alert.EngineID = engineID.String
	alert.RuleID = ruleID.String
	alert.Metric = metric.String
	alert.AcknowledgedBy = ackedBy.String
	if ackedAt.Valid {
		alert.AcknowledgedAt = ackedAt.Time.UTC()
	}
	if resolvedAt.Valid {
		alert.ResolvedAt = resolvedAt.Time.UTC()
	}
	return &alert, nil
}

func oneRowAffected(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
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

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
