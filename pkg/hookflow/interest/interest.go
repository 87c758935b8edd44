// Package interest provides structured matching criteria for event hooks.
//
// A Criterion describes which events a hook applies to. It is a conjunction:
// the event kind must match the criterion's kind pattern AND every attached
// constraint must hold against the event's properties. Hooks combine
// multiple criteria disjunctively: an event matches the hook if at least
// one criterion matches. Adding criteria always widens coverage.
//
// Criteria are validated eagerly. A malformed criterion (unknown verb,
// wrong value count, invalid glob pattern) is a configuration error
// surfaced by Validate at hook construction time, never at dispatch time.
package interest

import (
	"fmt"
	"path"
	"strings"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

// Verb identifies the comparison applied by a constraint.
type Verb string

// Constraint verbs.
const (
	// VerbEquals requires the property to be present and equal to the value.
	VerbEquals Verb = "equals"

	// VerbNotEquals requires the property to be present and different from
	// the value.
	VerbNotEquals Verb = "not-equals"

	// VerbMatches requires the property to be present and match the glob
	// pattern (path.Match syntax).
	VerbMatches Verb = "matches"

	// VerbInList requires the property to be present and equal to one of
	// the values.
	VerbInList Verb = "in-list"

	// VerbExists requires the property to be present, with any value.
	VerbExists Verb = "exists"

	// VerbAbsent requires the property to not be present.
	VerbAbsent Verb = "absent"
)

// Constraint is a single predicate over one event property.
type Constraint struct {
	// Key is the property name the constraint applies to.
	Key string

	// Verb is the comparison to apply.
	Verb Verb

	// Values are the comparison operands. The required count depends on
	// the verb: exactly one for equals/not-equals/matches, at least one
	// for in-list, none for exists/absent.
	Values []string
}

// ConstraintError describes a malformed constraint.
type ConstraintError struct {
	// Key is the property name of the offending constraint.
	Key string
	// Verb is the constraint's verb.
	Verb Verb
	// Reason describes what is wrong.
	Reason string
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint on %q (%s): %s", e.Key, e.Verb, e.Reason)
}

// Criterion is a conjunctive predicate over an event's kind and properties.
//
// Criterion is NOT safe for concurrent mutation. Build it in one goroutine,
// validate it, then attach it to a hook, after which it is read-only.
type Criterion struct {
	kind        string
	constraints []Constraint
}

// New creates a criterion for events of the given kind.
// The kind may be a glob pattern (path.Match syntax); an empty kind
// matches events of any kind.
func New(kind string) *Criterion {
	return &Criterion{kind: kind}
}

// Kind returns the criterion's kind pattern.
func (c *Criterion) Kind() string {
	return c.kind
}

// Constrain adds a constraint on a property.
// Returns the criterion for method chaining. Validation is deferred to
// Validate so constraints can be added in any order.
func (c *Criterion) Constrain(key string, verb Verb, values ...string) *Criterion {
	c.constraints = append(c.constraints, Constraint{
		Key:    key,
		Verb:   verb,
		Values: values,
	})
	return c
}

// Constraints returns the attached constraints.
// The returned slice is a copy.
func (c *Criterion) Constraints() []Constraint {
	out := make([]Constraint, len(c.constraints))
	copy(out, c.constraints)
	return out
}

// Validate checks that the criterion is well formed: the kind pattern and
// all glob values compile, every verb is known, and value counts match the
// verbs. Returns the first problem found.
func (c *Criterion) Validate() error {
	if err := checkPattern(c.kind); err != nil {
		return &ConstraintError{Key: "", Verb: VerbMatches,
			Reason: fmt.Sprintf("invalid kind pattern %q", c.kind)}
	}

	for _, cs := range c.constraints {
		if cs.Key == "" {
			return &ConstraintError{Key: cs.Key, Verb: cs.Verb,
				Reason: "empty property key"}
		}
		switch cs.Verb {
		case VerbEquals, VerbNotEquals:
			if len(cs.Values) != 1 {
				return &ConstraintError{Key: cs.Key, Verb: cs.Verb,
					Reason: fmt.Sprintf("requires exactly one value, got %d", len(cs.Values))}
			}
		case VerbMatches:
			if len(cs.Values) != 1 {
				return &ConstraintError{Key: cs.Key, Verb: cs.Verb,
					Reason: fmt.Sprintf("requires exactly one value, got %d", len(cs.Values))}
			}
			if err := checkPattern(cs.Values[0]); err != nil {
				return &ConstraintError{Key: cs.Key, Verb: cs.Verb,
					Reason: fmt.Sprintf("invalid glob pattern %q", cs.Values[0])}
			}
		case VerbInList:
			if len(cs.Values) == 0 {
				return &ConstraintError{Key: cs.Key, Verb: cs.Verb,
					Reason: "requires at least one value"}
			}
		case VerbExists, VerbAbsent:
			if len(cs.Values) != 0 {
				return &ConstraintError{Key: cs.Key, Verb: cs.Verb,
					Reason: fmt.Sprintf("takes no values, got %d", len(cs.Values))}
			}
		default:
			return &ConstraintError{Key: cs.Key, Verb: cs.Verb,
				Reason: "unknown verb"}
		}
	}
	return nil
}

// Matches reports whether the event satisfies this criterion.
// Assumes the criterion has been validated; evaluation on a validated
// criterion never fails.
func (c *Criterion) Matches(evt *event.Event) bool {
	if !matchPattern(c.kind, evt.Kind()) {
		return false
	}

	for _, cs := range c.constraints {
		if !cs.matches(evt) {
			return false
		}
	}
	return true
}

// matches evaluates a single constraint against the event's properties.
func (cs Constraint) matches(evt *event.Event) bool {
	val, present := evt.Property(cs.Key)

	switch cs.Verb {
	case VerbExists:
		return present
	case VerbAbsent:
		return !present
	}

	if !present {
		return false
	}

	switch cs.Verb {
	case VerbEquals:
		return val == cs.Values[0]
	case VerbNotEquals:
		return val != cs.Values[0]
	case VerbMatches:
		return matchPattern(cs.Values[0], val)
	case VerbInList:
		for _, v := range cs.Values {
			if val == v {
				return true
			}
		}
		return false
	}
	return false
}

// matchPattern matches a value against a glob pattern.
// An empty pattern matches anything; a pattern without globbing
// metacharacters falls back to plain equality.
func matchPattern(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern == value
	}
	ok, err := path.Match(pattern, value)
	return err == nil && ok
}

// checkPattern verifies a glob pattern compiles.
func checkPattern(pattern string) error {
	if pattern == "" || !strings.ContainsAny(pattern, "*?[") {
		return nil
	}
	_, err := path.Match(pattern, "")
	return err
}
