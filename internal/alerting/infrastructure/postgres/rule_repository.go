package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerting "energyguard/internal/alerting/domain"
)

// RuleRepository is a Postgres repository for alert rules.
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository constructs a repository.
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, name, engine_id, metric, operator, threshold, duration_seconds,
	severity, enabled, notify_email, notify_sms, notify_push, created_at, updated_at`

// List returns all rules ordered by name.
func (r *RuleRepository) List(ctx context.Context) ([]alerting.AlertRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM alert_rules ORDER BY name ASC`)
}

// ListEnabled returns enabled rules ordered by name.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]alerting.AlertRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM alert_rules WHERE enabled ORDER BY name ASC`)
}

func (r *RuleRepository) list(ctx context.Context, query string) ([]alerting.AlertRule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rule repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerting.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches one rule by id. A missing rule returns (nil, nil).
func (r *RuleRepository) Get(ctx context.Context, id string) (*alerting.AlertRule, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rule repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM alert_rules WHERE id = $1`, id)
	return scanRule(row)
}

// Insert stores a new rule.
func (r *RuleRepository) Insert(ctx context.Context, rule *alerting.AlertRule) error {
	if r == nil || r.db == nil {
		return errors.New("rule repo: nil db")
	}
	if rule == nil {
		return errors.New("rule repo: nil rule")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO alert_rules (
	id, name, engine_id, metric, operator, threshold, duration_seconds,
	severity, enabled, notify_email, notify_sms, notify_push, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7,
	$8, $9, $10, $11, $12, $13, $14
)`,
		rule.ID,
		rule.Name,
		nullableString(rule.EngineID),
		rule.Metric,
		string(rule.Operator),
		rule.Threshold,
		rule.DurationSeconds,
		rule.Severity,
		rule.Enabled,
		rule.NotifyEmail,
		rule.NotifySMS,
		rule.NotifyPush,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	return err
}

// Update overwrites an existing rule.
func (r *RuleRepository) Update(ctx context.Context, rule *alerting.AlertRule) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("rule repo: nil db")
	}
	if rule == nil {
		return false, errors.New("rule repo: nil rule")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alert_rules
SET name = $1, engine_id = $2, metric = $3, operator = $4, threshold = $5,
	duration_seconds = $6, severity = $7, enabled = $8,
	notify_email = $9, notify_sms = $10, notify_push = $11, updated_at = $12
WHERE id = $13`,
		rule.Name,
		nullableString(rule.EngineID),
		rule.Metric,
		string(rule.Operator),
		rule.Threshold,
		rule.DurationSeconds,
		rule.Severity,
		rule.Enabled,
		rule.NotifyEmail,
		rule.NotifySMS,
		rule.NotifyPush,
		rule.UpdatedAt,
		rule.ID,
	)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

// Toggle flips the enabled flag in place.
func (r *RuleRepository) Toggle(ctx context.Context, id string, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("rule repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alert_rules SET enabled = NOT enabled, updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

// Delete removes a rule.
func (r *RuleRepository) Delete(ctx context.Context, id string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("rule repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return oneRowAffected(result)
}

func scanRule(row rowScanner) (*alerting.AlertRule, error) {
	var rule alerting.AlertRule
	var engineID sql.NullString
	var operator string
	if err := row.Scan(
		&rule.ID,
		&rule.Name,
		&engineID,
		&rule.Metric,
		&operator,
		&rule.Threshold,
		&rule.DurationSeconds,
		&rule.Severity,
		&rule.Enabled,
		&rule.NotifyEmail,
		&rule.NotifySMS,
		&rule.NotifyPush,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rule.EngineID = engineID.String
	rule.Operator = alerting.Operator(operator)
	rule.CreatedAt = rule.CreatedAt.UTC()
	rule.UpdatedAt = rule.UpdatedAt.UTC()
	return &rule, nil
}
