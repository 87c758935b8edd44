package hookflow

import (
	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

// HookFunc is the signature for simple hook bodies.
// It receives the execution context and the event being dispatched,
// and returns an error if the hook's work failed.
//
// The event is read-only. Hooks act on the event's subject and
// properties, not on the event itself.
//
// Example:
//
//	func restoreVolume(ctx hookflow.Context, evt *event.Event) error {
//	    node, _ := evt.Property("node.name")
//	    ctx.Logger().Debug("restoring volume", "node", node)
//	    return nil
//	}
type HookFunc func(ctx Context, evt *event.Event) error

// SimpleHook runs a single callable to completion within one
// scheduling turn. It performs no suspension; long operations belong
// in an AsyncHook.
type SimpleHook struct {
	*hookBase
	fn HookFunc
}

// NewSimpleHook creates a synchronous hook that invokes fn once per
// matching event.
//
// Panics if fn is nil (programmer error). Returns an error for invalid
// configuration, such as a malformed interest criterion or an empty name.
//
// Example:
//
//	h, err := hookflow.NewSimpleHook("restore-stream", restoreVolume,
//	    hookflow.WithRunsAfter("find-target"),
//	    hookflow.WithInterest(interest.New("node-added")))
func NewSimpleHook(name string, fn HookFunc, opts ...HookOption) (*SimpleHook, error) {
	if fn == nil {
		panic("hookflow: NewSimpleHook called with nil function")
	}
	base, err := newHookBase(name, opts...)
	if err != nil {
		return nil, err
	}
	return &SimpleHook{hookBase: base, fn: fn}, nil
}

// Run invokes the wrapped callable.
func (h *SimpleHook) Run(ctx Context, evt *event.Event) error {
	return h.fn(ctx, evt)
}
