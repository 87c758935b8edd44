package event

// Properties is an ordered mapping of string keys to string values.
// Iteration order is insertion order; setting an existing key updates the
// value in place without changing its position.
//
// Properties is NOT safe for concurrent mutation. Build it in one
// goroutine, then attach it to an Event, after which it is read-only.
type Properties struct {
	keys   []string
	values map[string]string
}

// NewProperties creates an empty property set.
func NewProperties() *Properties {
	return &Properties{
		values: make(map[string]string),
	}
}

// Set adds or updates a property.
// Returns the property set for method chaining.
func (p *Properties) Set(key, value string) *Properties {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value for a key and whether it is set.
func (p *Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has returns true if the key is set.
func (p *Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Delete removes a key. No-op if the key is not set.
func (p *Properties) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
// The returned slice is a copy.
func (p *Properties) Keys() []string {
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	return len(p.keys)
}

// Range iterates over the properties in insertion order.
// If fn returns false, iteration stops.
func (p *Properties) Range(fn func(key, value string) bool) {
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy of the property set.
func (p *Properties) Clone() *Properties {
	if p == nil {
		return NewProperties()
	}
	clone := &Properties{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]string, len(p.values)),
	}
	copy(clone.keys, p.keys)
	for k, v := range p.values {
		clone.values[k] = v
	}
	return clone
}

// Map returns the properties as a plain map.
// The returned map is a copy; insertion order is lost.
func (p *Properties) Map() map[string]string {
	m := make(map[string]string, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}
