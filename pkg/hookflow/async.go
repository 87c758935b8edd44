package hookflow

import (
	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
	"github.com/randalmurphal/hookflow/pkg/hookflow/observability"
)

// Done is the terminal step identifier.
// Return it from a GetNextStepFunc to indicate the hook has finished.
const Done = "__done__"

// defaultMaxSteps bounds the async driver loop to catch decision
// functions that never return Done.
const defaultMaxSteps = 1000

// GetNextStepFunc decides the next unit of work for an async hook.
// Given the event and the state accumulated from prior steps, it
// returns the next step identifier, Done to complete, or an error to
// fail the hook.
//
// The decision must be pure: no I/O, no side effects. All actual work
// belongs in the ExecuteStepFunc.
//
// Example:
//
//	func nextStep(evt *event.Event, state any) (string, error) {
//	    if state == nil {
//	        return "acquire", nil
//	    }
//	    return hookflow.Done, nil
//	}
type GetNextStepFunc func(evt *event.Event, state any) (string, error)

// ExecuteStepFunc performs the work for one step and returns the
// updated state. It may suspend (wait on the scheduler, perform I/O)
// but must observe ctx cancellation rather than block indefinitely.
type ExecuteStepFunc func(ctx Context, evt *event.Event, step string, state any) (any, error)

// AsyncHook executes as a resumable multi-step state machine.
//
// The driver alternates between the decision function (what to do
// next) and the execution function (how to do it), folding the
// returned state back in after each step. Cancellation is checked at
// every step boundary, so a cancelled run stops between steps rather
// than mid-work.
type AsyncHook struct {
	*hookBase
	next GetNextStepFunc
	exec ExecuteStepFunc
}

// NewAsyncHook creates a multi-step hook driven by the next/exec pair.
//
// Panics if next or exec is nil (programmer error). Returns an error
// for invalid configuration, such as a malformed interest criterion or
// an empty name.
func NewAsyncHook(name string, next GetNextStepFunc, exec ExecuteStepFunc, opts ...HookOption) (*AsyncHook, error) {
	if next == nil {
		panic("hookflow: NewAsyncHook called with nil step decision function")
	}
	if exec == nil {
		panic("hookflow: NewAsyncHook called with nil step execution function")
	}
	base, err := newHookBase(name, opts...)
	if err != nil {
		return nil, err
	}
	return &AsyncHook{hookBase: base, next: next, exec: exec}, nil
}

// Run drives the state machine to completion, failure, or cancellation.
//
// Each iteration asks the decision function for the next step, then
// executes it. A decision of Done before any step completes the hook
// without executing anything.
func (h *AsyncHook) Run(ctx Context, evt *event.Event) error {
	maxSteps := defaultMaxSteps
	if ec, ok := ctx.(*executionContext); ok && ec.maxSteps > 0 {
		maxSteps = ec.maxSteps
	}

	var st any
	iterations := 0

	for {
		step, err := h.next(evt, st)
		if err != nil {
			return &StepError{Hook: h.name, Step: step, Err: err}
		}
		if step == Done {
			return nil
		}
		if step == "" {
			return &StepError{Hook: h.name, Step: step, Err: ErrEmptyStep}
		}

		iterations++
		if iterations > maxSteps {
			return &MaxStepsError{Max: maxSteps, Hook: h.name, LastStep: step}
		}

		// Check for cancellation before executing the step
		select {
		case <-ctx.Done():
			return &CancellationError{
				Hook:  h.name,
				Step:  step,
				Cause: ctx.Err(),
			}
		default:
		}

		observability.LogStep(ctx.Logger(), h.name, step)

		st, err = h.exec(ctx, evt, step, st)
		if err != nil {
			return &StepError{Hook: h.name, Step: step, Err: err}
		}
	}
}
