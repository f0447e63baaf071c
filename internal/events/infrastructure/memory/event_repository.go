// Package memory provides an in-process event feed for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	events "energyguard/internal/events/domain"
)

// EventRepository is an in-memory event feed.
type EventRepository struct {
	mu     sync.RWMutex
	events []events.Event
}

// NewEventRepository constructs a repository.
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

// Append stores one event.
func (r *EventRepository) Append(_ context.Context, event events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

// Latest returns the newest events, most recent first.
func (r *EventRepository) Latest(_ context.Context, limit int) ([]events.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	result := append([]events.Event(nil), r.events...)
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Time.After(result[j].Time) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
