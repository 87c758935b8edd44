// Package event defines the immutable event record consumed by the
// hookflow dispatcher and its hooks.
//
// An Event describes one occurrence in the managed session: a device
// appeared, a node changed state, a link was removed. Events carry a kind
// discriminator, an opaque subject reference owned by the producer, and an
// ordered set of string properties. Once constructed an event is never
// mutated; it is submitted to a dispatcher exactly once and discarded when
// its dispatch run reaches a terminal state.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of an occurrence.
//
// The subject is a non-owning reference to the object the event concerns;
// the producer keeps it alive for the duration of dispatch. Properties are
// read-only to hooks.
type Event struct {
	id        string
	kind      string
	subject   any
	props     *Properties
	timestamp time.Time
}

// Option configures event creation.
type Option func(*eventConfig)

type eventConfig struct {
	id        string
	props     *Properties
	timestamp time.Time
}

// WithID sets a specific event ID (default: auto-generated UUID).
func WithID(id string) Option {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithProperties attaches properties to the event, merging into any
// properties set by earlier options. The properties are copied, so later
// mutation of the argument does not affect the event.
func WithProperties(props *Properties) Option {
	return func(cfg *eventConfig) {
		if props == nil {
			return
		}
		if cfg.props == nil {
			cfg.props = props.Clone()
			return
		}
		props.Range(func(k, v string) bool {
			cfg.props.Set(k, v)
			return true
		})
	}
}

// WithProperty attaches a single property to the event.
// May be combined with WithProperties; options are applied in the order
// given, and a later option overwrites earlier values for the same key.
func WithProperty(key, value string) Option {
	return func(cfg *eventConfig) {
		if cfg.props == nil {
			cfg.props = NewProperties()
		}
		cfg.props.Set(key, value)
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *eventConfig) {
		cfg.timestamp = t
	}
}

// New creates an event of the given kind concerning the given subject.
// The subject may be nil for events that concern no particular object.
func New(kind string, subject any, opts ...Option) *Event {
	cfg := &eventConfig{
		id:        uuid.New().String(),
		timestamp: time.Now(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.props == nil {
		cfg.props = NewProperties()
	}

	return &Event{
		id:        cfg.id,
		kind:      kind,
		subject:   subject,
		props:     cfg.props,
		timestamp: cfg.timestamp,
	}
}

// ID returns the unique event identifier.
func (e *Event) ID() string {
	return e.id
}

// Kind returns the event's category discriminator.
func (e *Event) Kind() string {
	return e.kind
}

// Subject returns the opaque reference to the object this event concerns.
// The subject is owned by the producer; hooks must not retain it past the
// end of their execution.
func (e *Event) Subject() any {
	return e.subject
}

// Property returns the value of a single property and whether it is set.
func (e *Event) Property(key string) (string, bool) {
	return e.props.Get(key)
}

// Properties returns the event's property set.
// The returned value must be treated as read-only; mutating it is a
// programming error.
func (e *Event) Properties() *Properties {
	return e.props
}

// Timestamp returns when the event occurred.
func (e *Event) Timestamp() time.Time {
	return e.timestamp
}
