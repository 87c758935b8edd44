// Package registry provides a generic thread-safe registry that preserves
// registration order.
//
// Ordered is designed for read-heavy workloads using sync.RWMutex. It backs
// the hookflow dispatcher's hook table, where two properties matter beyond
// plain map lookup: a second registration under the same name must be
// rejected, and iteration must follow registration order so that unordered
// hooks execute first-registered-first.
//
// # Basic Usage
//
// Create a registry and register values:
//
//	r := registry.NewOrdered[int]()
//	if err := r.Register("one", 1); err != nil { ... }
//	if err := r.Register("two", 2); err != nil { ... }
//
//	value, ok := r.Get("one")
//	if ok {
//	    fmt.Println(value) // Output: 1
//	}
//
//	r.Names() // ["one", "two"], always registration order
//
// # Thread Safety
//
// All Ordered methods are safe for concurrent use. The Range method
// iterates over a snapshot of the registry, allowing mutations during
// iteration without affecting the iteration itself:
//
//	r.Range(func(name string, value int) bool {
//	    // Safe to call r.Register() or r.Remove() here
//	    return true // continue iteration
//	})
package registry
