// Package state provides persistent storage for per-component property
// maps.
//
// Hooks that need to remember things across daemon restarts, such as
// stream volumes or default device choices, save a named
// Properties set through a Store. Loading is forgiving: a missing or
// unreadable state yields an empty set, behaving as if nothing had been
// saved.
package state

import (
	"errors"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

// Store persists named property sets.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the properties under the given name, overwriting all
	// previously saved data for that name.
	Save(name string, props *event.Properties) error

	// Load retrieves the properties saved under the given name.
	// A name that was never saved yields an empty set, not an error;
	// errors are reserved for backend failures.
	Load(name string) (*event.Properties, error)

	// Clear removes all data saved under the given name.
	// No-op if nothing was saved.
	Clear(name string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("state store closed")
)
