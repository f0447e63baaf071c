// Package memory provides an in-process engine registry for tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	fleet "energyguard/internal/fleet/domain"
)

// EngineRepository is an in-memory engine registry.
type EngineRepository struct {
	mu      sync.RWMutex
	engines map[string]*fleet.Engine
}

// NewEngineRepository constructs a repository.
func NewEngineRepository() *EngineRepository {
	return &EngineRepository{engines: make(map[string]*fleet.Engine)}
}

// List returns all engines ordered by id.
func (r *EngineRepository) List(_ context.Context) ([]fleet.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]fleet.Engine, 0, len(r.engines))
	for _, engine := range r.engines {
		result = append(result, *engine)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Get returns a copy of one engine, or nil when missing.
func (r *EngineRepository) Get(_ context.Context, id string) (*fleet.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.engines[id]
	if !ok {
		return nil, nil
	}
	clone := *engine
	return &clone, nil
}

// UpdateStatus writes the derived status for one engine.
func (r *EngineRepository) UpdateStatus(_ context.Context, engineID, status string) error {
	if !fleet.ValidStatus(status) {
		return errors.New("engine repo: invalid status")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	engine, ok := r.engines[engineID]
	if !ok {
		return errors.New("engine repo: unknown engine")
	}
	engine.Status = status
	return nil
}

// Upsert creates the engine when absent.
func (r *EngineRepository) Upsert(_ context.Context, engine fleet.Engine) error {
	if err := engine.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[engine.ID]; !exists {
		clone := engine
		r.engines[engine.ID] = &clone
	}
	return nil
}
