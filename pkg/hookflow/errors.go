package hookflow

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for hook construction and registration.
var (
	// ErrEmptyHookName indicates a hook was constructed without a name.
	ErrEmptyHookName = errors.New("hook name cannot be empty")

	// ErrNilHook indicates Register() was called with a nil hook.
	ErrNilHook = errors.New("hook cannot be nil")
)

// Sentinel errors for dispatch.
var (
	// ErrNilContext indicates Dispatch() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNilEvent indicates Dispatch() was called with a nil event.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrNotRunning indicates Dispatch() or Stop() was called before Start().
	ErrNotRunning = errors.New("dispatcher not running")

	// ErrAlreadyRunning indicates Start() was called twice.
	ErrAlreadyRunning = errors.New("dispatcher already running")

	// ErrQueueFull indicates the dispatch queue is at capacity.
	ErrQueueFull = errors.New("dispatch queue full")
)

// Sentinel errors for async hook execution.
var (
	// ErrMaxSteps indicates an async hook exceeded the configured step limit.
	ErrMaxSteps = errors.New("exceeded maximum steps")

	// ErrEmptyStep indicates a step decision function returned an empty step name.
	ErrEmptyStep = errors.New("step decision returned empty step")
)

// NameCollisionError indicates a hook registration would shadow an
// existing hook with the same name.
type NameCollisionError struct {
	// Name is the conflicting hook name.
	Name string
}

// Error implements the error interface.
func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("hook %q already registered", e.Name)
}

// CycleError indicates the ordering constraints among the named hooks
// form a cycle. This is a configuration error: the registry cannot
// produce a valid execution order until a constraint is removed.
type CycleError struct {
	// Names are the hooks involved in the cycle, in registration order.
	Names []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("ordering cycle among hooks: %s", strings.Join(e.Names, ", "))
}

// HookError wraps an error with hook context.
// It provides information about which hook failed and what operation
// was attempted.
type HookError struct {
	// Hook is the name of the hook that failed.
	Hook string
	// Op is the operation that failed (e.g., "run").
	Op string
	// Err is the underlying error from the hook.
	Err error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s: %s: %v", e.Hook, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HookError) Unwrap() error {
	return e.Err
}

// StepError wraps an error from one step of an async hook.
type StepError struct {
	// Hook is the name of the async hook.
	Hook string
	// Step is the step that failed.
	Step string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("hook %s step %s: %v", e.Hook, e.Step, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StepError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from hook execution.
// It includes the stack trace for debugging.
type PanicError struct {
	// Hook is the name of the hook that panicked.
	Hook string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("hook %s panicked: %v", e.Hook, e.Value)
}

// CancellationError captures the point at which a dispatch run was cancelled.
type CancellationError struct {
	// Hook is the hook that was about to execute or was executing.
	Hook string
	// Step is the async step in flight, if any.
	Step string
	// Cause is the underlying cancellation cause (context.Canceled or
	// context.DeadlineExceeded).
	Cause error
	// WasExecuting is true if cancellation occurred during hook execution.
	WasExecuting bool
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	if e.WasExecuting {
		return fmt.Sprintf("cancelled during hook %s: %v", e.Hook, e.Cause)
	}
	return fmt.Sprintf("cancelled before hook %s: %v", e.Hook, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// MaxStepsError provides context when an async hook exceeds its step limit.
type MaxStepsError struct {
	// Max is the configured step limit.
	Max int
	// Hook is the async hook that exceeded the limit.
	Hook string
	// LastStep is the step that would have executed next.
	LastStep string
}

// Error implements the error interface.
func (e *MaxStepsError) Error() string {
	return fmt.Sprintf("hook %s exceeded maximum steps (%d) at step %s", e.Hook, e.Max, e.LastStep)
}

// Unwrap returns ErrMaxSteps for errors.Is support.
func (e *MaxStepsError) Unwrap() error {
	return ErrMaxSteps
}
