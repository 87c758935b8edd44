package state

import (
	"sync"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

// MemoryStore is an in-memory state store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]*event.Properties
	closed bool
}

// NewMemoryStore creates a new in-memory state store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*event.Properties),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(name string, props *event.Properties) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	// Clone to avoid retaining the caller's set.
	m.data[name] = props.Clone()
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(name string) (*event.Properties, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	return m.data[name].Clone(), nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, name)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
