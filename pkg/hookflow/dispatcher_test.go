package hookflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
	"github.com/randalmurphal/hookflow/pkg/hookflow/interest"
)

// TestDispatcher_Lifecycle tests Start/Stop state transitions.
func TestDispatcher_Lifecycle(t *testing.T) {
	d := NewDispatcher()

	// Dispatch before Start is rejected
	_, err := d.Dispatch(testCtx(), event.New("e", nil))
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, d.Start())
	assert.ErrorIs(t, d.Start(), ErrAlreadyRunning)

	require.NoError(t, d.Stop(context.Background()))
	assert.ErrorIs(t, d.Stop(context.Background()), ErrNotRunning)
}

// TestDispatcher_Dispatch_NilArguments tests argument validation.
func TestDispatcher_Dispatch_NilArguments(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Dispatch(nil, event.New("e", nil))
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = d.Dispatch(testCtx(), nil)
	assert.ErrorIs(t, err, ErrNilEvent)
}

// TestDispatcher_Register_NameCollision tests duplicate registration.
func TestDispatcher_Register_NameCollision(t *testing.T) {
	d := NewDispatcher()

	require.NoError(t, d.Register(mustSimple(t, "h", noop)))
	err := d.Register(mustSimple(t, "h", noop))

	var collision *NameCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "h", collision.Name)
}

// TestDispatcher_Register_NilHook tests nil hook rejection.
func TestDispatcher_Register_NilHook(t *testing.T) {
	d := NewDispatcher()
	assert.ErrorIs(t, d.Register(nil), ErrNilHook)
}

// TestDispatcher_Unregister tests removal and no-op on absent names.
func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Register(mustSimple(t, "h", noop)))

	d.Unregister("h")
	assert.Empty(t, d.Hooks())

	// Absent name is a no-op
	d.Unregister("ghost")
}

// TestDispatcher_ExecutionOrder tests that constraints order execution.
func TestDispatcher_ExecutionOrder(t *testing.T) {
	var executed []string
	h2 := makeTrackingHook(t, "h2", &executed, WithRunsAfter("h1"))
	h1 := makeTrackingHook(t, "h1", &executed, WithRunsBefore("h2"))

	// h2 registered first; the constraint still puts h1 first
	d := newTestDispatcher(t, h2, h1)
	run := dispatchWait(t, d, event.New("e", nil))

	assert.Equal(t, RunCompleted, run.State())
	assert.Equal(t, []string{"h1", "h2"}, executed)
	assert.Equal(t, []string{"h1", "h2"}, run.Executed())
}

// TestDispatcher_RegistrationOrderTieBreak tests that an unconstrained
// hook registered first executes first.
func TestDispatcher_RegistrationOrderTieBreak(t *testing.T) {
	var executed []string
	h3 := makeTrackingHook(t, "h3", &executed)
	h1 := makeTrackingHook(t, "h1", &executed, WithRunsBefore("h2"))
	h2 := makeTrackingHook(t, "h2", &executed, WithRunsAfter("h1"))

	d := newTestDispatcher(t, h3, h1, h2)
	run := dispatchWait(t, d, event.New("e", nil))

	assert.Equal(t, RunCompleted, run.State())
	assert.Equal(t, []string{"h3", "h1", "h2"}, executed)
}

// TestDispatcher_NonMatchingHookNeverRuns tests matcher-based selection.
func TestDispatcher_NonMatchingHookNeverRuns(t *testing.T) {
	var executed []string
	matching := makeTrackingHook(t, "matching", &executed,
		WithInterest(interest.New("node-added")))
	other := makeTrackingHook(t, "other", &executed,
		WithInterest(interest.New("link-added")))

	d := newTestDispatcher(t, matching, other)
	run := dispatchWait(t, d, event.New("node-added", nil))

	assert.Equal(t, RunCompleted, run.State())
	assert.Equal(t, []string{"matching"}, executed)
}

// TestDispatcher_NoMatchingHooks tests an event nothing matches.
func TestDispatcher_NoMatchingHooks(t *testing.T) {
	var executed []string
	h := makeTrackingHook(t, "h", &executed,
		WithInterest(interest.New("node-added")))

	d := newTestDispatcher(t, h)
	run := dispatchWait(t, d, event.New("link-added", nil))

	assert.Equal(t, RunCompleted, run.State())
	assert.Empty(t, executed)
	assert.Empty(t, run.Executed())
}

// TestDispatcher_NonCriticalFailureContinues tests the default failure policy.
func TestDispatcher_NonCriticalFailureContinues(t *testing.T) {
	boom := errors.New("routing failed")
	var executed []string

	h1 := makeFailingHook(t, "h1", boom, WithRunsBefore("h2"))
	h2 := makeTrackingHook(t, "h2", &executed)

	d := newTestDispatcher(t, h1, h2)
	run := dispatchWait(t, d, event.New("e", nil))

	// The run completes despite h1's failure
	assert.Equal(t, RunCompleted, run.State())
	assert.NoError(t, run.Err())
	assert.Equal(t, []string{"h2"}, executed)

	failures := run.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], boom)
}

// TestDispatcher_CriticalFailureAborts tests that a critical hook's
// failure stops the run.
func TestDispatcher_CriticalFailureAborts(t *testing.T) {
	boom := errors.New("device reservation failed")
	var executed []string

	h1 := makeFailingHook(t, "h1", boom, WithCritical(), WithRunsBefore("h2"))
	h2 := makeTrackingHook(t, "h2", &executed)

	d := newTestDispatcher(t, h1, h2)
	run := dispatchWait(t, d, event.New("e", nil))

	assert.Equal(t, RunFailed, run.State())
	assert.ErrorIs(t, run.Err(), boom)
	var hookErr *HookError
	require.ErrorAs(t, run.Err(), &hookErr)
	assert.Equal(t, "h1", hookErr.Hook)

	// h2 never started
	assert.Empty(t, executed)
}

// TestDispatcher_PanicRecovered tests that a panicking hook is
// converted to a PanicError instead of crashing the loop.
func TestDispatcher_PanicRecovered(t *testing.T) {
	var executed []string
	p := makePanicHook(t, "p", "boom", WithRunsBefore("h2"))
	h2 := makeTrackingHook(t, "h2", &executed)

	d := newTestDispatcher(t, p, h2)
	run := dispatchWait(t, d, event.New("e", nil))

	// Panic in a non-critical hook is a recorded failure
	assert.Equal(t, RunCompleted, run.State())
	assert.Equal(t, []string{"h2"}, executed)

	failures := run.Failures()
	require.Len(t, failures, 1)
	var panicErr *PanicError
	require.ErrorAs(t, failures[0], &panicErr)
	assert.Equal(t, "p", panicErr.Hook)
	assert.Equal(t, "boom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

// TestDispatcher_CancelBeforeRun tests cancelling a run before any
// hook starts.
func TestDispatcher_CancelBeforeRun(t *testing.T) {
	var executed []string
	started := make(chan struct{})
	release := make(chan struct{})

	// The first event's hook blocks the loop so the second run is
	// still queued when we cancel it.
	blocker := mustSimple(t, "blocker", func(ctx Context, evt *event.Event) error {
		close(started)
		<-release
		return nil
	}, WithInterest(interest.New("block")))
	tracked := makeTrackingHook(t, "tracked", &executed,
		WithInterest(interest.New("work")))

	d := newTestDispatcher(t, blocker, tracked)

	first, err := d.Dispatch(testCtx(), event.New("block", nil))
	require.NoError(t, err)
	<-started

	second, err := d.Dispatch(testCtx(), event.New("work", nil))
	require.NoError(t, err)
	second.Cancel()

	close(release)

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, _ := second.Wait(waitCtx)

	assert.Equal(t, RunCancelled, state)
	assert.Empty(t, executed)

	firstState, err := first.Wait(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, firstState)
}

// TestDispatcher_CancelMidRun tests that cancellation during one hook
// prevents the next from starting.
func TestDispatcher_CancelMidRun(t *testing.T) {
	var executed []string
	runReady := make(chan *Run, 1)

	h1 := mustSimple(t, "h1", func(ctx Context, evt *event.Event) error {
		r := <-runReady
		r.Cancel()
		return nil
	}, WithRunsBefore("h2"))
	h2 := makeTrackingHook(t, "h2", &executed)

	d := newTestDispatcher(t, h1, h2)

	run, err := d.Dispatch(testCtx(), event.New("e", nil))
	require.NoError(t, err)
	runReady <- run

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, _ := run.Wait(waitCtx)

	assert.Equal(t, RunCancelled, state)
	assert.Empty(t, executed)
}

// TestDispatcher_FIFO tests that events dispatch in submission order.
func TestDispatcher_FIFO(t *testing.T) {
	var kinds []string
	h := mustSimple(t, "h", func(ctx Context, evt *event.Event) error {
		kinds = append(kinds, evt.Kind())
		return nil
	})

	d := newTestDispatcher(t, h)

	var runs []*Run
	for _, kind := range []string{"first", "second", "third"} {
		run, err := d.Dispatch(testCtx(), event.New(kind, nil))
		require.NoError(t, err)
		runs = append(runs, run)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, run := range runs {
		_, err := run.Wait(waitCtx)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"first", "second", "third"}, kinds)
}

// TestDispatcher_QueueFull tests the non-blocking enqueue limit.
func TestDispatcher_QueueFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	// The blocker runs once per queued event; only the first signals
	blocker := mustSimple(t, "blocker", func(ctx Context, evt *event.Event) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	d := NewDispatcher(WithQueueSize(1))
	require.NoError(t, d.Register(blocker))
	require.NoError(t, d.Start())
	t.Cleanup(func() {
		close(release)
		_ = d.Stop(context.Background())
	})

	// First event occupies the loop, second fills the queue
	_, err := d.Dispatch(testCtx(), event.New("e1", nil))
	require.NoError(t, err)
	<-started
	_, err = d.Dispatch(testCtx(), event.New("e2", nil))
	require.NoError(t, err)

	_, err = d.Dispatch(testCtx(), event.New("e3", nil))
	assert.ErrorIs(t, err, ErrQueueFull)
}

// TestDispatcher_Validate tests whole-registry cycle detection.
func TestDispatcher_Validate(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Register(mustSimple(t, "a", noop, WithRunsBefore("b"))))
	require.NoError(t, d.Register(mustSimple(t, "b", noop)))

	require.NoError(t, d.Validate())

	require.NoError(t, d.Register(mustSimple(t, "c", noop, WithRunsBefore("a"), WithRunsAfter("b"))))

	err := d.Validate()
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycleErr.Names)

	// Removing a hook from the cycle clears the error
	d.Unregister("c")
	require.NoError(t, d.Validate())
}

// TestDispatcher_CycleFailsRun tests that a run whose selection hits a
// cycle terminates Failed with the CycleError.
func TestDispatcher_CycleFailsRun(t *testing.T) {
	a := mustSimple(t, "a", noop, WithRunsBefore("b"))
	b := mustSimple(t, "b", noop, WithRunsBefore("a"))

	d := newTestDispatcher(t, a, b)
	run := dispatchWait(t, d, event.New("e", nil))

	assert.Equal(t, RunFailed, run.State())
	var cycleErr *CycleError
	require.ErrorAs(t, run.Err(), &cycleErr)
}

// TestDispatcher_AsyncCriticalStepFailure tests an async hook failing
// mid-sequence: prior steps keep their effects, the run fails.
func TestDispatcher_AsyncCriticalStepFailure(t *testing.T) {
	boom := errors.New("transient failure")
	var steps []string

	h := mustAsync(t, "h",
		func(evt *event.Event, state any) (string, error) {
			switch state {
			case nil:
				return "s1", nil
			case "after-s1":
				return "s2", nil
			default:
				return Done, nil
			}
		},
		func(ctx Context, evt *event.Event, step string, state any) (any, error) {
			steps = append(steps, step)
			if step == "s2" {
				return state, boom
			}
			return "after-" + step, nil
		},
		WithCritical())

	d := newTestDispatcher(t, h)
	run := dispatchWait(t, d, event.New("e", nil))

	assert.Equal(t, RunFailed, run.State())
	var stepErr *StepError
	require.ErrorAs(t, run.Err(), &stepErr)
	assert.Equal(t, "s2", stepErr.Step)
	// S1 executed and is not rolled back
	assert.Equal(t, []string{"s1", "s2"}, steps)
}

// TestDispatcher_StopCancelsQueuedRuns tests that shutdown cancels
// runs that never started: a run still queued when Stop is called must
// not execute even though the queue is non-empty when the loop wakes.
func TestDispatcher_StopCancelsQueuedRuns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once

	blocker := mustSimple(t, "blocker", func(ctx Context, evt *event.Event) error {
		startedOnce.Do(func() { close(started) })
		<-release
		return nil
	})

	d := NewDispatcher()
	require.NoError(t, d.Register(blocker))
	require.NoError(t, d.Start())

	first, err := d.Dispatch(testCtx(), event.New("e1", nil))
	require.NoError(t, err)
	<-started

	queued, err := d.Dispatch(testCtx(), event.New("e2", nil))
	require.NoError(t, err)

	stopDone := make(chan error, 1)
	go func() {
		stopDone <- d.Stop(context.Background())
	}()

	// Let Stop close the stop channel while the loop is still busy with
	// the first run, then release the blocker.
	time.Sleep(50 * time.Millisecond)
	close(release)
	require.NoError(t, <-stopDone)

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	firstState, _ := first.Wait(waitCtx)
	assert.Equal(t, RunCompleted, firstState)

	queuedState, _ := queued.Wait(waitCtx)
	assert.Equal(t, RunCancelled, queuedState)
	assert.Empty(t, queued.Executed())
}

// TestRun_Handle tests the run handle's metadata accessors.
func TestRun_Handle(t *testing.T) {
	h := makeTrackingHook(t, "h", &[]string{})
	d := newTestDispatcher(t, h)

	evt := event.New("node-added", nil)
	run := dispatchWait(t, d, evt)

	assert.NotEmpty(t, run.ID())
	assert.Same(t, evt, run.Event())
	assert.True(t, run.State().Terminal())

	// Done channel is closed once terminal
	select {
	case <-run.Done():
	default:
		t.Fatal("Done channel not closed after terminal state")
	}
}
