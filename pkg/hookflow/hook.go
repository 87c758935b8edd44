package hookflow

import (
	"fmt"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
	"github.com/randalmurphal/hookflow/pkg/hookflow/interest"
)

// Hook is a named, orderable, matchable unit of work executed against
// matching events.
//
// Hooks are registered once with a dispatcher and live for its lifetime.
// Name, ordering constraints, and criticality are constant after
// construction. Matches must be pure and side-effect free.
type Hook interface {
	// Name returns the hook's unique identifier within a dispatcher.
	Name() string

	// RunsBefore returns the names of hooks that must execute strictly
	// after this hook, when both match the same event.
	RunsBefore() []string

	// RunsAfter returns the names of hooks that must execute strictly
	// before this hook, when both match the same event.
	RunsAfter() []string

	// Matches reports whether this hook applies to the event.
	Matches(evt *event.Event) bool

	// Critical reports whether a failure of this hook aborts the
	// remainder of the dispatch run.
	Critical() bool

	// Run executes the hook against the event. It must observe ctx
	// cancellation at suspension points rather than block indefinitely.
	Run(ctx Context, evt *event.Event) error
}

// hookBase carries the name, ordering constraints, and interest-based
// matching shared by both hook strategies.
type hookBase struct {
	name      string
	before    []string
	after     []string
	critical  bool
	interests []*interest.Criterion
}

// Name returns the hook name.
func (h *hookBase) Name() string {
	return h.name
}

// RunsBefore returns the names of hooks this hook must precede.
func (h *hookBase) RunsBefore() []string {
	out := make([]string, len(h.before))
	copy(out, h.before)
	return out
}

// RunsAfter returns the names of hooks this hook must follow.
func (h *hookBase) RunsAfter() []string {
	out := make([]string, len(h.after))
	copy(out, h.after)
	return out
}

// Critical reports whether this hook aborts the run on failure.
func (h *hookBase) Critical() bool {
	return h.critical
}

// Matches reports whether the event satisfies at least one attached
// interest criterion. A hook with no interests matches every event.
// Criteria are OR-combined; each criterion is an AND of its constraints.
func (h *hookBase) Matches(evt *event.Event) bool {
	if len(h.interests) == 0 {
		return true
	}
	for _, c := range h.interests {
		if c.Matches(evt) {
			return true
		}
	}
	return false
}

// validate checks the hook's configuration. Malformed interest criteria
// are surfaced here, at construction time, never at dispatch time.
func (h *hookBase) validate() error {
	if h.name == "" {
		return ErrEmptyHookName
	}
	for _, c := range h.interests {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("hook %q: %w", h.name, err)
		}
	}
	return nil
}

// HookOption configures a hook at construction time.
type HookOption func(*hookBase)

// WithRunsBefore declares hooks that must execute after this one,
// when both match the same event. Names referring to hooks never
// registered impose no constraint.
func WithRunsBefore(names ...string) HookOption {
	return func(h *hookBase) {
		h.before = append(h.before, names...)
	}
}

// WithRunsAfter declares hooks that must execute before this one,
// when both match the same event. Names referring to hooks never
// registered impose no constraint.
func WithRunsAfter(names ...string) HookOption {
	return func(h *hookBase) {
		h.after = append(h.after, names...)
	}
}

// WithCritical marks the hook as critical: its failure aborts the
// remaining hooks for the event and marks the run Failed. The default
// policy logs the failure and continues.
func WithCritical() HookOption {
	return func(h *hookBase) {
		h.critical = true
	}
}

// WithInterest attaches an interest criterion to the hook. Multiple
// criteria widen applicability: the hook matches an event satisfying
// any one of them. A hook with no interests matches every event.
func WithInterest(c *interest.Criterion) HookOption {
	return func(h *hookBase) {
		if c != nil {
			h.interests = append(h.interests, c)
		}
	}
}

// newHookBase builds and validates the shared hook base.
func newHookBase(name string, opts ...HookOption) (*hookBase, error) {
	h := &hookBase{name: name}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}
