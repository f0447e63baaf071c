// Package eventing provides the in-process event bus connecting telemetry
// ingestion to its consumers (alert evaluation, operational event recording).
package eventing

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// Handler handles a published event.
type Handler func(ctx context.Context, event any) error

// Bus delivers events to subscribed handlers.
type Bus interface {
	Publish(ctx context.Context, event any) error
	Subscribe(eventType string, handler Handler)
}

// ErrNilEvent is returned when a nil event is published.
var ErrNilEvent = errors.New("eventing: nil event")

// InMemoryBus is a minimal synchronous in-process bus. Handlers run on the
// publisher's goroutine; the first handler error is returned after all
// handlers have run.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewInMemoryBus constructs a bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string][]Handler)}
}

// Publish dispatches an event to all handlers of its type.
func (b *InMemoryBus) Publish(ctx context.Context, event any) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[TypeName(event)]...)
	b.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe registers a handler for an event type.
func (b *InMemoryBus) Subscribe(eventType string, handler Handler) {
	if eventType == "" || handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// TypeName returns the fully-qualified type name for an event instance.
func TypeName(event any) string {
	if event == nil {
		return ""
	}
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// TypeNameOf returns the fully-qualified type name for a type parameter.
func TypeNameOf[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
