package memory

import (
	"context"
	"sort"
	"sync"

	workorders "energyguard/internal/workorders/domain"
)

// WorkOrderRepository is an in-memory work order store used by tests.
type WorkOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]workorders.WorkOrder
}

// NewWorkOrderRepository constructs an empty repository.
func NewWorkOrderRepository() *WorkOrderRepository {
	return &WorkOrderRepository{orders: make(map[string]workorders.WorkOrder)}
}

// Insert stores a new work order.
func (r *WorkOrderRepository) Insert(_ context.Context, order *workorders.WorkOrder) error {
	if err := order.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

// GetByID fetches one work order. A missing order returns (nil, nil).
func (r *WorkOrderRepository) GetByID(_ context.Context, id string) (*workorders.WorkOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	clone := order
	return &clone, nil
}

// Update overwrites an existing work order.
func (r *WorkOrderRepository) Update(_ context.Context, order *workorders.WorkOrder) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return false, nil
	}
	r.orders[order.ID] = *order
	return true, nil
}

// List returns work orders matching the filters, newest first.
func (r *WorkOrderRepository) List(_ context.Context, filters workorders.Filters) ([]workorders.WorkOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []workorders.WorkOrder
	for _, order := range r.orders {
		if filters.Status != "" && order.Status != filters.Status {
			continue
		}
		if filters.EngineID != "" && order.EngineID != filters.EngineID {
			continue
		}
		if filters.Priority != "" && order.Priority != filters.Priority {
			continue
		}
		if filters.AssignedTo != "" && order.AssignedTo != filters.AssignedTo {
			continue
		}
		result = append(result, order)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Stats summarises the stored work orders.
func (r *WorkOrderRepository) Stats(_ context.Context) (workorders.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats workorders.Stats
	for _, order := range r.orders {
		stats.Total++
		switch order.Status {
		case workorders.StatusOpen:
			stats.Open++
		case workorders.StatusInProgress:
			stats.InProgress++
		case workorders.StatusCompleted:
			stats.Completed++
		}
		if order.Priority == workorders.PriorityCritical && order.Status != workorders.StatusCompleted {
			stats.Critical++
		}
	}
	return stats, nil
}
