package postgres

import (
	"context"
	"database/sql"
	"errors"

	events "energyguard/internal/events/domain"
)

// EventRepository is a Postgres repository for the operational event feed.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository constructs a repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append stores one event.
func (r *EventRepository) Append(ctx context.Context, event events.Event) error {
	if r == nil || r.db == nil {
		return errors.New("event repo: nil db")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO events (id, time, level, message, engine_id)
VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.Time, event.Level, event.Message, nullableString(event.EngineID))
	return err
}

// Latest returns the newest events, most recent first.
func (r *EventRepository) Latest(ctx context.Context, limit int) ([]events.Event, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, time, level, message, engine_id
FROM events
ORDER BY time DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []events.Event
	for rows.Next() {
		var event events.Event
		var engineID sql.NullString
		if err := rows.Scan(&event.ID, &event.Time, &event.Level, &event.Message, &engineID); err != nil {
			return nil, err
		}
		event.Time = event.Time.UTC()
		event.EngineID = engineID.String
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
