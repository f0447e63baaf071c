package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	alerting "energyguard/internal/alerting/domain"
)

// RuleRepository is an in-memory alert rule store.
type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*alerting.AlertRule
}

// NewRuleRepository constructs a repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{rules: make(map[string]*alerting.AlertRule)}
}

// List returns all rules ordered by name.
func (r *RuleRepository) List(_ context.Context) ([]alerting.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]alerting.AlertRule, 0, len(r.rules))
	for _, rule := range r.rules {
		result = append(result, *rule)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ListEnabled returns enabled rules ordered by name.
func (r *RuleRepository) ListEnabled(ctx context.Context) ([]alerting.AlertRule, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	enabled := all[:0]
	for _, rule := range all {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	return enabled, nil
}

// Get returns a copy of the rule, or nil when missing.
func (r *RuleRepository) Get(_ context.Context, id string) (*alerting.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, nil
	}
	clone := *rule
	return &clone, nil
}

// Insert stores a new rule.
func (r *RuleRepository) Insert(_ context.Context, rule *alerting.AlertRule) error {
	if rule == nil {
		return errors.New("rule repo: nil rule")
	}
	clone := *rule
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.ID]; exists {
		return errors.New("rule repo: duplicate id")
	}
	r.rules[rule.ID] = &clone
	return nil
}

// Update overwrites an existing rule.
func (r *RuleRepository) Update(_ context.Context, rule *alerting.AlertRule) (bool, error) {
	if rule == nil {
		return false, errors.New("rule repo: nil rule")
	}
	clone := *rule
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return false, nil
	}
	r.rules[rule.ID] = &clone
	return true, nil
}

// Toggle flips the enabled flag.
func (r *RuleRepository) Toggle(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return false, nil
	}
	rule.Enabled = !rule.Enabled
	rule.UpdatedAt = at
	return true, nil
}

// Delete removes a rule.
func (r *RuleRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return false, nil
	}
	delete(r.rules, id)
	return true, nil
}
