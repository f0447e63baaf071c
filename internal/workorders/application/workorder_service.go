package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	workorders "energyguard/internal/workorders/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// WorkOrderStore is the persistence surface the service depends on.
type WorkOrderStore interface {
	Insert(ctx context.Context, order *workorders.WorkOrder) error
	GetByID(ctx context.Context, id string) (*workorders.WorkOrder, error)
	Update(ctx context.Context, order *workorders.WorkOrder) (bool, error)
	List(ctx context.Context, filters workorders.Filters) ([]workorders.WorkOrder, error)
	Stats(ctx context.Context) (workorders.Stats, error)
}

// WorkOrderSpec carries the fields a caller supplies when raising a work order.
type WorkOrderSpec struct {
	EngineID    string `json:"engine_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to"`
}

// WorkOrderService manages the maintenance work order lifecycle.
type WorkOrderService struct {
	store  WorkOrderStore
	clock  Clock
	logger zerolog.Logger
}

// NewWorkOrderService constructs a service around the given store.
func NewWorkOrderService(store WorkOrderStore, clock Clock, logger zerolog.Logger) *WorkOrderService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &WorkOrderService{store: store, clock: clock, logger: logger}
}

// Create raises a new work order in the open state.
func (s *WorkOrderService) Create(ctx context.Context, spec WorkOrderSpec, actor string) (*workorders.WorkOrder, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("workorder service: nil store")
	}
	now := s.clock.Now()
	priority := spec.Priority
	if priority == "" {
		priority = workorders.PriorityMedium
	}
	order := &workorders.WorkOrder{
		ID:          uuid.NewString(),
		EngineID:    spec.EngineID,
		Title:       spec.Title,
		Description: spec.Description,
		Status:      workorders.StatusOpen,
		Priority:    priority,
		AssignedTo:  spec.AssignedTo,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("work_order_id", order.ID).
		Str("engine_id", order.EngineID).
		Str("actor", actor).
		Msg("work order created")
	return order, nil
}

// Get fetches one work order by id.
func (s *WorkOrderService) Get(ctx context.Context, id string) (*workorders.WorkOrder, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("workorder service: nil store")
	}
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, workorders.ErrNotFound
	}
	return order, nil
}

// Transition moves a work order to a new status. Completed and cancelled
// orders are terminal.
func (s *WorkOrderService) Transition(ctx context.Context, id, status, actor string) (*workorders.WorkOrder, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("workorder service: nil store")
	}
	if !workorders.ValidStatus(status) {
		return nil, errors.New("workorder service: invalid status")
	}
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, workorders.ErrNotFound
	}
	if order.Status == workorders.StatusCompleted || order.Status == workorders.StatusCancelled {
		return nil, errors.New("workorder service: work order is closed")
	}
	now := s.clock.Now()
	order.Status = status
	order.UpdatedAt = now
	if status == workorders.StatusCompleted {
		order.CompletedAt = now
	}
	updated, err := s.store.Update(ctx, order)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, workorders.ErrNotFound
	}
	s.logger.Info().
		Str("work_order_id", order.ID).
		Str("status", status).
		Str("actor", actor).
		Msg("work order transitioned")
	return order, nil
}

// Assign sets the assignee on an open or in-progress work order.
func (s *WorkOrderService) Assign(ctx context.Context, id, assignee, actor string) (*workorders.WorkOrder, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("workorder service: nil store")
	}
	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, workorders.ErrNotFound
	}
	if order.Status == workorders.StatusCompleted || order.Status == workorders.StatusCancelled {
		return nil, errors.New("workorder service: work order is closed")
	}
	order.AssignedTo = assignee
	order.UpdatedAt = s.clock.Now()
	updated, err := s.store.Update(ctx, order)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, workorders.ErrNotFound
	}
	s.logger.Info().
		Str("work_order_id", order.ID).
		Str("assigned_to", assignee).
		Str("actor", actor).
		Msg("work order assigned")
	return order, nil
}

// List returns work orders matching the filters.
func (s *WorkOrderService) List(ctx context.Context, filters workorders.Filters) ([]workorders.WorkOrder, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("workorder service: nil store")
	}
	return s.store.List(ctx, filters)
}

// Stats summarises work order counts.
func (s *WorkOrderService) Stats(ctx context.Context) (workorders.Stats, error) {
	if s == nil || s.store == nil {
		return workorders.Stats{}, errors.New("workorder service: nil store")
	}
	return s.store.Stats(ctx)
}
