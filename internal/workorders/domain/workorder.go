package workorders

import (
	"errors"
	"time"
)

// Work order lifecycle states.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// ErrNotFound is returned when a referenced work order does not exist.
var ErrNotFound = errors.New("workorders: not found")

// WorkOrder is a maintenance task raised against an engine.
type WorkOrder struct {
	ID          string    `json:"id"`
	EngineID    string    `json:"engine_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Validate checks work order invariants.
func (w WorkOrder) Validate() error {
	if w.ID == "" {
		return errors.New("work order: empty id")
	}
	if w.Title == "" {
		return errors.New("work order: empty title")
	}
	if !ValidStatus(w.Status) {
		return errors.New("work order: invalid status")
	}
	if !ValidPriority(w.Priority) {
		return errors.New("work order: invalid priority")
	}
	return nil
}

// ValidStatus returns true when status is a known work order status.
func ValidStatus(status string) bool {
	switch status {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// ValidPriority returns true when priority is a known level.
func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Filters narrows work order list queries. Zero values mean "no filter".
type Filters struct {
	Status     string
	EngineID   string
	Priority   string
	AssignedTo string
}

// Stats summarises work order counts.
type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Critical   int `json:"critical"`
}
