package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	alerting "energyguard/internal/alerting/domain"
)

// RuleStore is the persistence surface for alert rules.
type RuleStore interface {
	List(ctx context.Context) ([]alerting.AlertRule, error)
	ListEnabled(ctx context.Context) ([]alerting.AlertRule, error)
	Get(ctx context.Context, id string) (*alerting.AlertRule, error)
	Insert(ctx context.Context, rule *alerting.AlertRule) error
	Update(ctx context.Context, rule *alerting.AlertRule) (bool, error)
	Toggle(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// RuleSpec carries the caller-supplied fields for a new rule.
type RuleSpec struct {
	Name            string            `json:"name"`
	EngineID        string            `json:"engine_id"`
	Metric          string            `json:"metric"`
	Operator        alerting.Operator `json:"operator"`
	Threshold       float64           `json:"threshold"`
	DurationSeconds int               `json:"duration_seconds"`
	Severity        string            `json:"severity"`
	Enabled         *bool             `json:"enabled"`
	NotifyEmail     bool              `json:"notify_email"`
	NotifySMS       bool              `json:"notify_sms"`
	NotifyPush      bool              `json:"notify_push"`
}

// RuleUpdate carries a partial update; nil fields are left unchanged.
type RuleUpdate struct {
	Name            *string            `json:"name"`
	EngineID        *string            `json:"engine_id"`
	Metric          *string            `json:"metric"`
	Operator        *alerting.Operator `json:"operator"`
	Threshold       *float64           `json:"threshold"`
	DurationSeconds *int               `json:"duration_seconds"`
	Severity        *string            `json:"severity"`
	Enabled         *bool              `json:"enabled"`
	NotifyEmail     *bool              `json:"notify_email"`
	NotifySMS       *bool              `json:"notify_sms"`
	NotifyPush      *bool              `json:"notify_push"`
}

// RuleService exposes rule configuration operations. Validation failures are
// rejected before anything touches storage, so updates are never partially
// applied.
type RuleService struct {
	store  RuleStore
	clock  Clock
	logger zerolog.Logger
}

// NewRuleService constructs a service.
func NewRuleService(store RuleStore, clock Clock, logger zerolog.Logger) (*RuleService, error) {
	if store == nil {
		return nil, errors.New("rule service: nil store")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RuleService{store: store, clock: clock, logger: logger}, nil
}

// List returns all rules.
func (s *RuleService) List(ctx context.Context) ([]alerting.AlertRule, error) {
	return s.store.List(ctx)
}

// Get returns one rule or alerting.ErrNotFound.
func (s *RuleService) Get(ctx context.Context, id string) (*alerting.AlertRule, error) {
	rule, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, alerting.ErrNotFound
	}
	return rule, nil
}

// Create validates and persists a new rule. New rules default to enabled.
func (s *RuleService) Create(ctx context.Context, spec RuleSpec, actorID string) (*alerting.AlertRule, error) {
	now := s.clock.Now()
	enabled := true
	if spec.Enabled != nil {
		enabled = *spec.Enabled
	}
	rule := &alerting.AlertRule{
		ID:              uuid.NewString(),
		Name:            spec.Name,
		EngineID:        spec.EngineID,
		Metric:          spec.Metric,
		Operator:        spec.Operator,
		Threshold:       spec.Threshold,
		DurationSeconds: spec.DurationSeconds,
		Severity:        spec.Severity,
		Enabled:         enabled,
		NotifyEmail:     spec.NotifyEmail,
		NotifySMS:       spec.NotifySMS,
		NotifyPush:      spec.NotifyPush,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, rule); err != nil {
		return nil, err
	}
	s.logger.Info().Str("rule_id", rule.ID).Str("actor", actorID).Str("name", rule.Name).Msg("alert rule created")
	return rule, nil
}

// Update applies a partial update to an existing rule.
func (s *RuleService) Update(ctx context.Context, id string, update RuleUpdate, actorID string) (*alerting.AlertRule, error) {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyRuleUpdate(rule, update)
	rule.UpdatedAt = s.clock.Now()
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.store.Update(ctx, rule)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, alerting.ErrNotFound
	}
	s.logger.Info().Str("rule_id", id).Str("actor", actorID).Msg("alert rule updated")
	return rule, nil
}

// Toggle flips the enabled flag. It returns false when the rule is missing.
func (s *RuleService) Toggle(ctx context.Context, id, actorID string) (bool, error) {
	ok, err := s.store.Toggle(ctx, id, s.clock.Now())
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info().Str("rule_id", id).Str("actor", actorID).Msg("alert rule toggled")
	}
	return ok, nil
}

// Delete removes a rule. It returns false when the rule is missing.
func (s *RuleService) Delete(ctx context.Context, id, actorID string) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info().Str("rule_id", id).Str("actor", actorID).Msg("alert rule deleted")
	}
	return ok, nil
}

func applyRuleUpdate(rule *alerting.AlertRule, update RuleUpdate) {
	if update.Name != nil {
		rule.Name = *update.Name
	}
	if update.EngineID != nil {
		rule.EngineID = *update.EngineID
	}
	if update.Metric != nil {
		rule.Metric = *update.Metric
	}
	if update.Operator != nil {
		rule.Operator = *update.Operator
	}
	if update.Threshold != nil {
		rule.Threshold = *update.Threshold
	}
	if update.DurationSeconds != nil {
		rule.DurationSeconds = *update.DurationSeconds
	}
	if update.Severity != nil {
		rule.Severity = *update.Severity
	}
	if update.Enabled != nil {
		rule.Enabled = *update.Enabled
	}
	if update.NotifyEmail != nil {
		rule.NotifyEmail = *update.NotifyEmail
	}
	if update.NotifySMS != nil {
		rule.NotifySMS = *update.NotifySMS
	}
	if update.NotifyPush != nil {
		rule.NotifyPush = *update.NotifyPush
	}
}
