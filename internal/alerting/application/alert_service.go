package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	alerting "energyguard/internal/alerting/domain"
)

// Clock abstracts wall-clock time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// AlertStore is the persistence surface for alert lifecycle records.
// Acknowledge and Resolve are conditional updates: they succeed only when the
// record is still in an eligible status, so exactly one of two racing callers
// wins.
type AlertStore interface {
	Insert(ctx context.Context, alert *alerting.Alert) error
	GetByID(ctx context.Context, id string) (*alerting.Alert, error)
	Acknowledge(ctx context.Context, id, actor string, at time.Time) (bool, error)
	Resolve(ctx context.Context, id, actor string, at time.Time) (bool, error)
	List(ctx context.Context, filters alerting.Filters) ([]alerting.Alert, error)
	Stats(ctx context.Context, resolvedSince time.Time) (alerting.Stats, error)
}

// AlertService exposes alert queries and the user-facing lifecycle mutators.
type AlertService struct {
	store  AlertStore
	clock  Clock
	logger zerolog.Logger
}

// NewAlertService constructs a service.
func NewAlertService(store AlertStore, clock Clock, logger zerolog.Logger) (*AlertService, error) {
	if store == nil {
		return nil, errors.New("alert service: nil store")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &AlertService{store: store, clock: clock, logger: logger}, nil
}

// Acknowledge moves an active alert to acknowledged, stamping the actor of
// record. It returns false without error when the alert exists but is no
// longer active; a missing alert returns alerting.ErrNotFound.
func (s *AlertService) Acknowledge(ctx context.Context, alertID, actorID string) (bool, error) {
	if alertID == "" {
		return false, errors.New("alert service: empty alert id")
	}
	if actorID == "" {
		return false, errors.New("alert service: empty actor id")
	}
	ok, err := s.store.Acknowledge(ctx, alertID, actorID, s.clock.Now())
	if err != nil {
		return false, err
	}
	if !ok {
		return false, s.conflictOrNotFound(ctx, alertID)
	}
	s.logger.Info().Str("alert_id", alertID).Str("actor", actorID).Msg("alert acknowledged")
	return true, nil
}

// Resolve moves an active or acknowledged alert to resolved. When the alert
// was never acknowledged, the resolve actor and time are backfilled so every
// resolved alert has an acknowledger of record. Resolving a resolved alert
// returns false.
func (s *AlertService) Resolve(ctx context.Context, alertID, actorID string) (bool, error) {
	if alertID == "" {
		return false, errors.New("alert service: empty alert id")
	}
	if actorID == "" {
		return false, errors.New("alert service: empty actor id")
	}
	ok, err := s.store.Resolve(ctx, alertID, actorID, s.clock.Now())
	if err != nil {
		return false, err
	}
	if !ok {
		return false, s.conflictOrNotFound(ctx, alertID)
	}
	s.logger.Info().Str("alert_id", alertID).Str("actor", actorID).Msg("alert resolved")
	return true, nil
}

// Get returns one alert or alerting.ErrNotFound.
func (s *AlertService) Get(ctx context.Context, alertID string) (*alerting.Alert, error) {
	alert, err := s.store.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, alerting.ErrNotFound
	}
	return alert, nil
}

// List returns alerts matching the filters, newest first.
func (s *AlertService) List(ctx context.Context, filters alerting.Filters) ([]alerting.Alert, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 100
	}
	return s.store.List(ctx, filters)
}

// Stats returns alert counts; resolved counts cover the trailing 24 hours.
func (s *AlertService) Stats(ctx context.Context) (alerting.Stats, error) {
	return s.store.Stats(ctx, s.clock.Now().Add(-24*time.Hour))
}

// conflictOrNotFound distinguishes "does not exist" from "already in a
// terminal or conflicting state" after a failed conditional update.
func (s *AlertService) conflictOrNotFound(ctx context.Context, alertID string) error {
	existing, err := s.store.GetByID(ctx, alertID)
	if err != nil {
		return err
	}
	if existing == nil {
		return alerting.ErrNotFound
	}
	return nil
}
