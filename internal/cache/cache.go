package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a durable key-value slot store for collection snapshots.
type Store interface {
	// Get returns the stored payload. Read failures are reported as absent.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set replaces the payload of key. On error the previous payload is intact.
	Set(ctx context.Context, key string, payload []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// UpdatedAt reports when key was last written.
	UpdatedAt(ctx context.Context, key string) (time.Time, bool)
}

type entry struct {
	payload   []byte
	updatedAt time.Time
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]entry),
		now:   time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.payload...), true
}

func (m *MemoryStore) Set(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = entry{
		payload:   append([]byte(nil), payload...),
		updatedAt: m.now(),
	}
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *MemoryStore) UpdatedAt(_ context.Context, key string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[key]
	return e.updatedAt, ok
}

// Size returns the number of stored keys
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
