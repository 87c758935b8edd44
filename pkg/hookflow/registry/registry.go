package registry

import (
	"errors"
	"sync"
)

// ErrExists indicates a registration under a name that is already taken.
var ErrExists = errors.New("registry: name already registered")

// Ordered is a thread-safe registry of values indexed by name that
// preserves registration order. It uses sync.RWMutex for read-heavy
// workloads.
//
// Unlike a plain map, iteration order is the order of registration:
// first registered, first returned. Removing and re-registering a name
// moves it to the end.
type Ordered[V any] struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]V
}

// NewOrdered creates a new empty ordered registry.
func NewOrdered[V any]() *Ordered[V] {
	return &Ordered[V]{
		entries: make(map[string]V),
	}
}

// Register adds a value under the given name.
// Returns ErrExists if the name is already registered.
func (r *Ordered[V]) Register(name string, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return ErrExists
	}
	r.entries[name] = value
	r.order = append(r.order, name)
	return nil
}

// Remove deletes a name from the registry.
// Returns true if the name was registered.
func (r *Ordered[V]) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the value for a name and whether it exists.
func (r *Ordered[V]) Get(name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	return v, ok
}

// Has returns true if the name is registered.
func (r *Ordered[V]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns all registered names in registration order.
// The returned slice is a copy.
func (r *Ordered[V]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Values returns all registered values in registration order.
func (r *Ordered[V]) Values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values := make([]V, 0, len(r.order))
	for _, n := range r.order {
		values = append(values, r.entries[n])
	}
	return values
}

// Len returns the number of registered entries.
func (r *Ordered[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Range iterates over the entries in registration order.
// The function fn is called for each entry. If fn returns false,
// iteration stops.
//
// Range iterates over a snapshot of the registry, so it is safe to call
// Register or Remove during iteration without affecting the current
// iteration.
func (r *Ordered[V]) Range(fn func(name string, value V) bool) {
	r.mu.RLock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	snapshot := make(map[string]V, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	for _, n := range names {
		if !fn(n, snapshot[n]) {
			return
		}
	}
}
