package application

import (
	"context"
	"errors"

	fleet "energyguard/internal/fleet/domain"
)

// ErrNotFound is returned when a referenced engine does not exist.
var ErrNotFound = errors.New("fleet: engine not found")

// EngineStore is the persistence surface for the fleet.
type EngineStore interface {
	List(ctx context.Context) ([]fleet.Engine, error)
	Get(ctx context.Context, id string) (*fleet.Engine, error)
	UpdateStatus(ctx context.Context, engineID, status string) error
	Upsert(ctx context.Context, engine fleet.Engine) error
}

// EngineService exposes fleet read operations.
type EngineService struct {
	store EngineStore
}

// NewEngineService constructs a service.
func NewEngineService(store EngineStore) (*EngineService, error) {
	if store == nil {
		return nil, errors.New("engine service: nil store")
	}
	return &EngineService{store: store}, nil
}

// List returns all engines.
func (s *EngineService) List(ctx context.Context) ([]fleet.Engine, error) {
	return s.store.List(ctx)
}

// Get returns one engine or ErrNotFound.
func (s *EngineService) Get(ctx context.Context, id string) (*fleet.Engine, error) {
	engine, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, ErrNotFound
	}
	return engine, nil
}

// Exists reports whether the engine is known to the fleet.
func (s *EngineService) Exists(ctx context.Context, engineID string) (bool, error) {
	engine, err := s.store.Get(ctx, engineID)
	if err != nil {
		return false, err
	}
	return engine != nil, nil
}
