package hookflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
)

// RunState identifies a dispatch run's position in its lifecycle.
type RunState string

// Dispatch run states. A run moves Pending -> Selecting -> Running and
// ends in exactly one of Completed, Failed, or Cancelled. Terminal
// states are final; a run is never resumed or reused.
const (
	RunPending   RunState = "pending"
	RunSelecting RunState = "selecting"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Terminal reports whether the state is final.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// Run is the handle for one dispatched event. It tracks selection,
// ordering, and completion, and resolves to the run's terminal state.
//
// The producer that dispatched the event holds the handle; the
// dispatcher exclusively drives the run's execution.
type Run struct {
	id     string
	event  *event.Event
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    RunState
	err      error
	failures []error
	executed []string
}

// newRun creates a pending run for the event.
func newRun(evt *event.Event, cancel context.CancelFunc) *Run {
	return &Run{
		id:     uuid.New().String(),
		event:  evt,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  RunPending,
	}
}

// ID returns the run's unique identifier.
func (r *Run) ID() string {
	return r.id
}

// Event returns the event this run dispatches.
func (r *Run) Event() *event.Event {
	return r.event
}

// State returns the run's current state.
func (r *Run) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the first critical error, or nil. Only meaningful once
// the run is terminal.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Failures returns the non-critical hook errors collected during the
// run. These never abort the run; they are reported here and logged.
func (r *Run) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.failures))
	copy(out, r.failures)
	return out
}

// Executed returns the names of hooks that finished (successfully or
// not) during the run, in execution order.
func (r *Run) Executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.executed))
	copy(out, r.executed)
	return out
}

// Done returns a channel closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel requests cooperative cancellation of the run. The currently
// executing hook observes the request at its next suspension point;
// hooks not yet started never start. Cancelling a terminal run has no
// effect.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait blocks until the run is terminal or ctx is done. Returns the
// terminal state and the first critical error, if any.
func (r *Run) Wait(ctx context.Context) (RunState, error) {
	select {
	case <-r.done:
		return r.State(), r.Err()
	case <-ctx.Done():
		return r.State(), ctx.Err()
	}
}

// setState advances the run's state. Internal to the dispatcher.
func (r *Run) setState(s RunState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// recordExecuted appends a finished hook name.
func (r *Run) recordExecuted(name string) {
	r.mu.Lock()
	r.executed = append(r.executed, name)
	r.mu.Unlock()
}

// recordFailure appends a non-critical hook error.
func (r *Run) recordFailure(err error) {
	r.mu.Lock()
	r.failures = append(r.failures, err)
	r.mu.Unlock()
}

// finish moves the run to a terminal state and releases waiters.
func (r *Run) finish(s RunState, err error) {
	r.mu.Lock()
	r.state = s
	if err != nil && r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
	close(r.done)
}
