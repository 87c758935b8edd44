package hookflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/hookflow/pkg/hookflow/sched"
	"github.com/randalmurphal/hookflow/pkg/hookflow/state"
)

// Context provides execution context to hooks.
// It extends context.Context with hookflow-specific services and metadata.
//
// Context is immutable after creation. The dispatcher creates derived
// contexts for each hook with updated HookName and enriched logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with run and hook context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// Scheduler returns the cooperative scheduler for non-blocking waits.
	// Never returns nil - defaults to a timer-backed scheduler.
	Scheduler() sched.Scheduler

	// State returns the state store, or nil if not configured.
	// Hooks should check for nil before using.
	State() state.Store

	// Metadata

	// RunID returns the unique identifier for this dispatch run.
	// Auto-generated if not configured.
	RunID() string

	// HookName returns the hook currently executing.
	// Empty string before execution starts.
	HookName() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger    *slog.Logger
	scheduler sched.Scheduler
	store     state.Store
	runID     string
	hookName  string
	maxSteps  int
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// Scheduler returns the cooperative scheduler.
func (c *executionContext) Scheduler() sched.Scheduler {
	return c.scheduler
}

// State returns the state store.
func (c *executionContext) State() state.Store {
	return c.store
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// HookName returns the current hook name.
func (c *executionContext) HookName() string {
	return c.hookName
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id and hook during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithScheduler sets the cooperative scheduler for the context.
// Async hooks use it to implement non-blocking waits between steps.
func WithScheduler(s sched.Scheduler) ContextOption {
	return func(c *executionContext) {
		c.scheduler = s
	}
}

// WithState sets the state store for the context.
// Hooks use it to persist and restore property sets across restarts.
func WithState(store state.Store) ContextOption {
	return func(c *executionContext) {
		c.store = store
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
// This is used for logging and tracing.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
// The returned Context wraps the provided context.Context and adds
// hookflow-specific services and metadata.
//
// Example:
//
//	ctx := hookflow.NewContext(context.Background(),
//	    hookflow.WithLogger(myLogger),
//	    hookflow.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context:   ctx,
		logger:    slog.Default(),
		scheduler: sched.NewTimer(),
		runID:     uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withHook returns a new context with the given hook name set.
// Used internally by the dispatcher to enrich the context per-hook.
func (c *executionContext) withHook(hook string) *executionContext {
	return &executionContext{
		Context:   c.Context,
		logger:    c.logger.With("run_id", c.runID, "hook", hook),
		scheduler: c.scheduler,
		store:     c.store,
		runID:     c.runID,
		hookName:  hook,
		maxSteps:  c.maxSteps,
	}
}

// withRun returns a new context bound to a run's cancellable context
// and identifier. Used internally by the dispatcher.
func (c *executionContext) withRun(ctx context.Context, runID string, maxSteps int) *executionContext {
	return &executionContext{
		Context:   ctx,
		logger:    c.logger,
		scheduler: c.scheduler,
		store:     c.store,
		runID:     runID,
		maxSteps:  maxSteps,
	}
}
