package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory map.
// This is the default backend and provides fast access with no persistence.
// All counters are lost when the process exits.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	closed  bool
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time // zero means no expiry
}

// NewMemoryStore creates a new in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the current value for a counter.
func (m *MemoryStore) Get(ctx context.Context, name string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, false, ErrClosed
	}

	entry, ok := m.entries[name]
	if !ok {
		return 0, false, nil
	}
	if !entry.expiresAt.IsZero() && !time.Now().Before(entry.expiresAt) {
		delete(m.entries, name)
		return 0, false, nil
	}
	return entry.value, true, nil
}

// Set overwrites a counter with the given value and TTL.
func (m *MemoryStore) Set(ctx context.Context, name string, value int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.entries[name] = entry
	return nil
}

// Increment adds delta to a counter and returns the new value.
func (m *MemoryStore) Increment(ctx context.Context, name string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	now := time.Now()
	entry, ok := m.entries[name]
	if ok && !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
		ok = false
	}

	if !ok {
		entry = memoryEntry{value: 0}
		if ttl > 0 {
			entry.expiresAt = now.Add(ttl)
		}
	}

	entry.value += delta
	m.entries[name] = entry
	return entry.value, nil
}

// Cleanup removes expired counters.
func (m *MemoryStore) Cleanup(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	deleted := 0
	for name, entry := range m.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(m.entries, name)
			deleted++
		}
	}
	return deleted, nil
}

// Close marks the store as closed. Subsequent calls return ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}
