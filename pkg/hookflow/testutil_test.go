package hookflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

// Helper hook constructors used across tests

// mustSimple creates a simple hook or fails the test.
func mustSimple(t *testing.T, name string, fn HookFunc, opts ...HookOption) *SimpleHook {
	t.Helper()
	h, err := NewSimpleHook(name, fn, opts...)
	require.NoError(t, err)
	return h
}

// makeTrackingHook creates a hook that records its execution.
func makeTrackingHook(t *testing.T, name string, tracker *[]string, opts ...HookOption) *SimpleHook {
	t.Helper()
	return mustSimple(t, name, func(ctx Context, evt *event.Event) error {
		*tracker = append(*tracker, name)
		return nil
	}, opts...)
}

// makeFailingHook creates a hook that returns the given error.
func makeFailingHook(t *testing.T, name string, err error, opts ...HookOption) *SimpleHook {
	t.Helper()
	return mustSimple(t, name, func(ctx Context, evt *event.Event) error {
		return err
	}, opts...)
}

// makePanicHook creates a hook that panics with the given value.
func makePanicHook(t *testing.T, name string, value any, opts ...HookOption) *SimpleHook {
	t.Helper()
	return mustSimple(t, name, func(ctx Context, evt *event.Event) error {
		panic(value)
	}, opts...)
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}

// newTestDispatcher creates a started dispatcher with the given hooks,
// stopped automatically at test cleanup.
func newTestDispatcher(t *testing.T, hooks ...Hook) *Dispatcher {
	t.Helper()
	d := NewDispatcher()
	for _, h := range hooks {
		require.NoError(t, d.Register(h))
	}
	require.NoError(t, d.Start())
	t.Cleanup(func() {
		_ = d.Stop(context.Background())
	})
	return d
}

// dispatchWait dispatches an event and waits for its terminal state.
func dispatchWait(t *testing.T, d *Dispatcher, evt *event.Event) *Run {
	t.Helper()
	run, err := d.Dispatch(testCtx(), evt)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = run.Wait(waitCtx)
	require.True(t, run.State().Terminal(), "run did not reach a terminal state")
	return run
}
