// Package cache provides a small TTL key-value cache used as a building
// block by the dashboard snapshot path. Cache absence is never fatal: callers
// fall back to direct storage reads.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a best-effort TTL key-value store. Get returns ok=false on a miss;
// backend errors are returned but callers are expected to treat them as
// misses.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type memoryEntry struct {
	value  []byte
	expiry time.Time
}

// Memory is an in-process Cache. It backs tests and serves as the fallback
// tier behind Redis.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory constructs an in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get returns the value for key when present and unexpired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || time.Now().After(entry.expiry) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expiry: time.Now().Add(ttl)}
	m.sweepLocked()
	m.mu.Unlock()
	return nil
}

// Del removes key.
func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) sweepLocked() {
	now := time.Now()
	for key, entry := range m.entries {
		if now.After(entry.expiry) {
			delete(m.entries, key)
		}
	}
}
