package cache

import (
	"context"
	"strings"
	"sync"
)

type memEntry struct {
	value []byte
	stale bool
}

// Memory is a process-local Store. Every operation is a single atomic
// step under one mutex; there is no multi-step critical section.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
	flights Flights
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memEntry)}
}

func (m *Memory) Get(ctx context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return &Entry{Value: out, Stale: entry.stale}, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = &memEntry{value: stored}
	m.mu.Unlock()
	return nil
}

func (m *Memory) BeginFetch(ctx context.Context, key string) (context.Context, func()) {
	return m.flights.Begin(ctx, key)
}

func (m *Memory) CancelInFlight(ctx context.Context, key string) error {
	return m.flights.CancelAndWait(ctx, key)
}

func (m *Memory) Invalidate(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		if entry, ok := m.entries[key]; ok {
			entry.stale = true
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) InvalidatePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	for key, entry := range m.entries {
		if strings.HasPrefix(key, prefix) {
			entry.stale = true
		}
	}
	m.mu.Unlock()
	return nil
}

// Len reports the number of cached entries, stale included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
