package hookflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
	"github.com/randalmurphal/hookflow/pkg/hookflow/interest"
)

// TestNewSimpleHook_EmptyName tests that an empty name is rejected.
func TestNewSimpleHook_EmptyName(t *testing.T) {
	_, err := NewSimpleHook("", func(ctx Context, evt *event.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyHookName)
}

// TestNewSimpleHook_NilFunc tests that a nil body panics.
func TestNewSimpleHook_NilFunc(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = NewSimpleHook("h", nil)
	})
}

// TestNewAsyncHook_NilFuncs tests that nil decision/execution functions panic.
func TestNewAsyncHook_NilFuncs(t *testing.T) {
	exec := func(ctx Context, evt *event.Event, step string, state any) (any, error) {
		return nil, nil
	}
	next := func(evt *event.Event, state any) (string, error) {
		return Done, nil
	}

	assert.Panics(t, func() {
		_, _ = NewAsyncHook("h", nil, exec)
	})
	assert.Panics(t, func() {
		_, _ = NewAsyncHook("h", next, nil)
	})
}

// TestNewSimpleHook_InvalidInterest tests that a malformed criterion is
// rejected at construction time.
func TestNewSimpleHook_InvalidInterest(t *testing.T) {
	bad := interest.New("node-added").
		Constrain("media.class", interest.VerbEquals) // equals needs a value

	_, err := NewSimpleHook("h", func(ctx Context, evt *event.Event) error { return nil },
		WithInterest(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "h")
}

// TestHook_Matches_NoInterests tests that a hook with no interests
// matches every event.
func TestHook_Matches_NoInterests(t *testing.T) {
	h := mustSimple(t, "h", func(ctx Context, evt *event.Event) error { return nil })

	assert.True(t, h.Matches(event.New("node-added", nil)))
	assert.True(t, h.Matches(event.New("link-removed", nil)))
}

// TestHook_Matches_SingleCriterion tests conjunctive matching within a criterion.
func TestHook_Matches_SingleCriterion(t *testing.T) {
	h := mustSimple(t, "h", func(ctx Context, evt *event.Event) error { return nil },
		WithInterest(interest.New("node-added").
			Constrain("media.class", interest.VerbEquals, "Audio/Sink")))

	matching := event.New("node-added", nil,
		event.WithProperty("media.class", "Audio/Sink"))
	wrongProp := event.New("node-added", nil,
		event.WithProperty("media.class", "Audio/Source"))
	wrongKind := event.New("node-removed", nil,
		event.WithProperty("media.class", "Audio/Sink"))

	assert.True(t, h.Matches(matching))
	assert.False(t, h.Matches(wrongProp))
	assert.False(t, h.Matches(wrongKind))
}

// TestHook_Matches_CriteriaAreORCombined tests that multiple interests
// widen applicability.
func TestHook_Matches_CriteriaAreORCombined(t *testing.T) {
	h := mustSimple(t, "h", func(ctx Context, evt *event.Event) error { return nil },
		WithInterest(interest.New("node-added")),
		WithInterest(interest.New("node-removed")))

	assert.True(t, h.Matches(event.New("node-added", nil)))
	assert.True(t, h.Matches(event.New("node-removed", nil)))
	assert.False(t, h.Matches(event.New("link-added", nil)))
}

// TestHook_Constraints tests that ordering declarations are preserved
// and returned as copies.
func TestHook_Constraints(t *testing.T) {
	h := mustSimple(t, "h", func(ctx Context, evt *event.Event) error { return nil },
		WithRunsBefore("b1", "b2"),
		WithRunsAfter("a1"))

	assert.Equal(t, []string{"b1", "b2"}, h.RunsBefore())
	assert.Equal(t, []string{"a1"}, h.RunsAfter())

	// Mutating the returned slice must not affect the hook
	before := h.RunsBefore()
	before[0] = "mutated"
	assert.Equal(t, []string{"b1", "b2"}, h.RunsBefore())
}

// TestHook_Critical tests the criticality flag.
func TestHook_Critical(t *testing.T) {
	normal := mustSimple(t, "n", func(ctx Context, evt *event.Event) error { return nil })
	critical := mustSimple(t, "c", func(ctx Context, evt *event.Event) error { return nil },
		WithCritical())

	assert.False(t, normal.Critical())
	assert.True(t, critical.Critical())
}

// TestWithInterest_NilIgnored tests that a nil criterion is ignored.
func TestWithInterest_NilIgnored(t *testing.T) {
	h := mustSimple(t, "h", func(ctx Context, evt *event.Event) error { return nil },
		WithInterest(nil))

	// No interests attached, so the hook matches everything
	assert.True(t, h.Matches(event.New("anything", nil)))
}
