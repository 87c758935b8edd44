package hookflow

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
	"github.com/randalmurphal/hookflow/pkg/hookflow/observability"
	"github.com/randalmurphal/hookflow/pkg/hookflow/registry"
	"github.com/randalmurphal/hookflow/pkg/hookflow/state"
)

// Dispatcher owns the hook registry and the derived ordering graph.
// It receives events, resolves the matching ordered hook sequence, and
// drives execution to completion, cancellation, or failure.
//
// Runs are strictly serialized: a new event's dispatch starts only
// after the previous event's run reaches a terminal state. Hooks
// matching one event execute sequentially in constraint order, so
// later hooks can rely on side effects of earlier ones.
type Dispatcher struct {
	cfg     dispatcherConfig
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	hooks *registry.Ordered[Hook]

	// graphMu guards the cached ordering graph and its dirty flag.
	graphMu sync.Mutex
	graph   *orderingGraph
	dirty   bool

	// lifeMu guards the dispatcher lifecycle.
	lifeMu   sync.Mutex
	running  bool
	queue    chan queuedRun
	stop     chan struct{}
	loopDone chan struct{}
}

// queuedRun pairs a run with the execution context it was dispatched under.
type queuedRun struct {
	run *Run
	ctx *executionContext
}

// NewDispatcher creates a dispatcher. Call Start() before dispatching.
//
// Example:
//
//	d := hookflow.NewDispatcher(hookflow.WithQueueSize(128))
//	if err := d.Register(myHook); err != nil { ... }
//	if err := d.Start(); err != nil { ... }
//	defer d.Stop(context.Background())
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	cfg := defaultDispatcherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Dispatcher{
		cfg:     cfg,
		hooks:   registry.NewOrdered[Hook](),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	if cfg.metricsEnabled {
		d.metrics = observability.NewMetricsRecorder()
	}
	if cfg.tracingEnabled {
		d.spans = observability.NewSpanManager()
	}
	return d
}

// Register adds a hook to the registry.
// Returns a NameCollisionError if a hook with the same name exists.
//
// Registration is not safe to interleave with an in-flight run's
// selection phase; register hooks before Start() or between runs.
func (d *Dispatcher) Register(h Hook) error {
	if h == nil {
		return ErrNilHook
	}
	if err := d.hooks.Register(h.Name(), h); err != nil {
		if errors.Is(err, registry.ErrExists) {
			return &NameCollisionError{Name: h.Name()}
		}
		return err
	}
	d.invalidateGraph()
	return nil
}

// Unregister removes a hook by name. No-op if absent.
func (d *Dispatcher) Unregister(name string) {
	if d.hooks.Remove(name) {
		d.invalidateGraph()
	}
}

// Hooks returns the registered hook names in registration order.
func (d *Dispatcher) Hooks() []string {
	return d.hooks.Names()
}

// Validate checks the full ordering graph for cycles.
// Returns a CycleError naming the hooks involved, or nil.
//
// A cycle among hooks that never match the same event would still be
// reported here: with opaque matchers, co-matching cannot be decided
// statically, so any cycle is treated as a configuration error.
func (d *Dispatcher) Validate() error {
	graph, hooks := d.currentGraph()
	_, err := graph.order(hooks)
	return err
}

// Start launches the dispatch loop.
// Returns ErrAlreadyRunning if the dispatcher is already started.
func (d *Dispatcher) Start() error {
	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()

	if d.running {
		return ErrAlreadyRunning
	}

	d.queue = make(chan queuedRun, d.cfg.queueSize)
	d.stop = make(chan struct{})
	d.loopDone = make(chan struct{})
	d.running = true

	go d.loop()
	return nil
}

// Stop shuts down the dispatch loop. The in-flight run, if any, is
// allowed to finish; queued runs that never started are cancelled.
// Blocks until the loop exits or ctx is done.
//
// Returns ErrNotRunning if the dispatcher was not started.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.lifeMu.Lock()
	if !d.running {
		d.lifeMu.Unlock()
		return ErrNotRunning
	}
	d.running = false
	close(d.stop)
	loopDone := d.loopDone
	d.lifeMu.Unlock()

	select {
	case <-loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch enqueues an event for dispatch and returns its run handle.
// The handle resolves to the terminal run state and, on failure, the
// first critical error.
//
// The event is dispatched asynchronously, FIFO with respect to other
// dispatched events. Returns ErrQueueFull rather than blocking when
// the queue is at capacity.
func (d *Dispatcher) Dispatch(ctx Context, evt *event.Event) (*Run, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if evt == nil {
		return nil, ErrNilEvent
	}

	d.lifeMu.Lock()
	defer d.lifeMu.Unlock()

	if !d.running {
		return nil, ErrNotRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := newRun(evt, cancel)
	ec := d.executionContextFor(ctx, runCtx, run.id)

	select {
	case d.queue <- queuedRun{run: run, ctx: ec}:
		return run, nil
	default:
		cancel()
		return nil, ErrQueueFull
	}
}

// executionContextFor builds the per-run execution context, carrying
// the caller's services bound to the run's cancellable context.
func (d *Dispatcher) executionContextFor(ctx Context, runCtx context.Context, runID string) *executionContext {
	if ec, ok := ctx.(*executionContext); ok {
		rc := ec.withRun(runCtx, runID, d.cfg.maxSteps)
		rc.store = d.instrumentStore(rc.store, runCtx)
		return rc
	}
	return &executionContext{
		Context:   runCtx,
		logger:    ctx.Logger(),
		scheduler: ctx.Scheduler(),
		store:     d.instrumentStore(ctx.State(), runCtx),
		runID:     runID,
		maxSteps:  d.cfg.maxSteps,
	}
}

// instrumentStore wraps the store so hook-initiated saves report their
// byte counts. Returns the store unchanged when metrics are disabled.
func (d *Dispatcher) instrumentStore(s state.Store, ctx context.Context) state.Store {
	if s == nil || !d.cfg.metricsEnabled {
		return s
	}
	// Contexts derived from a previous run already carry a wrapped
	// store; rewrap the underlying one to keep a single layer.
	if is, ok := s.(*instrumentedStore); ok {
		s = is.Store
	}
	return &instrumentedStore{Store: s, metrics: d.metrics, ctx: ctx}
}

// instrumentedStore decorates a state.Store, recording the size of each
// successful save.
type instrumentedStore struct {
	state.Store
	metrics observability.MetricsRecorder
	ctx     context.Context
}

func (s *instrumentedStore) Save(name string, props *event.Properties) error {
	if err := s.Store.Save(name, props); err != nil {
		return err
	}
	var size int64
	if props != nil {
		props.Range(func(k, v string) bool {
			size += int64(len(k) + len(v))
			return true
		})
	}
	s.metrics.RecordStateSave(s.ctx, name, size)
	return nil
}

// invalidateGraph marks the cached ordering graph stale.
func (d *Dispatcher) invalidateGraph() {
	d.graphMu.Lock()
	d.dirty = true
	d.graphMu.Unlock()
}

// currentGraph returns the ordering graph and the hooks it was derived
// from, rebuilding the graph if the registry changed.
func (d *Dispatcher) currentGraph() (*orderingGraph, []Hook) {
	d.graphMu.Lock()
	defer d.graphMu.Unlock()

	hooks := d.hooks.Values()
	if d.graph == nil || d.dirty {
		d.graph = newOrderingGraph(hooks)
		d.dirty = false
	}
	return d.graph, hooks
}

// loop consumes queued runs one at a time, FIFO.
func (d *Dispatcher) loop() {
	defer close(d.loopDone)
	for {
		// Stop wins over a non-empty queue: once Stop is called, queued
		// runs that never started must not execute.
		select {
		case <-d.stop:
			d.drain()
			return
		default:
		}

		select {
		case <-d.stop:
			d.drain()
			return
		case item := <-d.queue:
			d.process(item.run, item.ctx)
		}
	}
}

// drain cancels runs that were queued but never started.
func (d *Dispatcher) drain() {
	for {
		select {
		case item := <-d.queue:
			item.run.cancel()
			item.run.finish(RunCancelled, nil)
		default:
			return
		}
	}
}

// process drives one run from Selecting to a terminal state.
func (d *Dispatcher) process(run *Run, ec *executionContext) {
	logger := ec.logger
	start := time.Now()

	observability.LogRunStart(logger, run.id, run.event.Kind())

	// Selecting: compute the matching subset and its order
	run.setState(RunSelecting)

	graph, hooks := d.currentGraph()
	matches := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h.Matches(run.event) {
			matches = append(matches, h)
		}
	}

	ordered, err := graph.order(matches)
	if err != nil {
		// A cycle is a configuration error; the run cannot proceed
		d.finishRun(run, ec, RunFailed, err, start)
		return
	}

	// Running: execute hooks strictly sequentially in order
	run.setState(RunRunning)

	tracingCtx := context.Context(ec)
	var runSpan trace.Span
	if d.cfg.tracingEnabled {
		tracingCtx, runSpan = d.spans.StartRunSpan(ec, run.id, run.event.Kind())
	}

	state := RunCompleted
	var runErr error

	for _, h := range ordered {
		name := h.Name()

		// Check for cancellation before starting the hook
		select {
		case <-ec.Done():
			state = RunCancelled
			runErr = &CancellationError{Hook: name, Cause: ec.Err()}
		default:
		}
		if state == RunCancelled {
			break
		}

		observability.LogHookStart(logger, name)

		hookTracingCtx := tracingCtx
		var hookSpan trace.Span
		if d.cfg.tracingEnabled {
			hookTracingCtx, hookSpan = d.spans.StartHookSpan(tracingCtx, name)
		}

		hookStart := time.Now()
		hookErr := d.executeHook(ec, h, run.event)
		hookDuration := time.Since(hookStart)

		d.metrics.RecordHookExecution(hookTracingCtx, name, hookDuration, hookErr)
		if d.cfg.tracingEnabled {
			d.spans.EndSpanWithError(hookSpan, hookErr)
		}

		run.recordExecuted(name)

		if hookErr == nil {
			observability.LogHookComplete(logger, name, float64(hookDuration.Milliseconds()))
			continue
		}

		// Cancellation is a distinct outcome, never conflated with failure
		var cancelErr *CancellationError
		if errors.As(hookErr, &cancelErr) {
			state = RunCancelled
			runErr = hookErr
			break
		}
		if ec.Err() != nil {
			state = RunCancelled
			runErr = &CancellationError{
				Hook:         name,
				Cause:        ec.Err(),
				WasExecuting: true,
			}
			break
		}

		observability.LogHookError(logger, name, hookErr)

		if h.Critical() {
			state = RunFailed
			runErr = hookErr
			break
		}

		// Non-critical failure: record it and continue with the next hook
		run.recordFailure(hookErr)
	}

	if d.cfg.tracingEnabled {
		d.spans.EndSpanWithError(runSpan, runErr)
	}

	d.finishRun(run, ec, state, runErr, start)
}

// executeHook runs a single hook with panic recovery and an enriched
// per-hook context.
func (d *Dispatcher) executeHook(ec *executionContext, h Hook, evt *event.Event) (err error) {
	hookCtx := ec.withHook(h.Name())

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Hook:  h.Name(),
				Value: r,
				Stack: string(debug.Stack()),
			}
		}
	}()

	err = h.Run(hookCtx, evt)
	if err != nil && !isHookflowError(err) {
		return &HookError{
			Hook: h.Name(),
			Op:   "run",
			Err:  err,
		}
	}
	return err
}

// isHookflowError reports whether the error already carries hook
// context and should not be wrapped again.
func isHookflowError(err error) bool {
	var (
		hookErr   *HookError
		stepErr   *StepError
		cancelErr *CancellationError
		maxErr    *MaxStepsError
		panicErr  *PanicError
	)
	return errors.As(err, &hookErr) ||
		errors.As(err, &stepErr) ||
		errors.As(err, &cancelErr) ||
		errors.As(err, &maxErr) ||
		errors.As(err, &panicErr)
}

// finishRun moves the run to its terminal state, reports it, and
// releases the run's context.
func (d *Dispatcher) finishRun(run *Run, ec *executionContext, state RunState, runErr error, start time.Time) {
	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())

	d.metrics.RecordDispatchRun(ec, string(state), duration)

	if state == RunFailed {
		observability.LogRunError(ec.logger, run.id, runErr, durationMs, lastHookOf(runErr))
	} else {
		observability.LogRunComplete(ec.logger, run.id, string(state), durationMs, len(run.Executed()))
	}

	run.finish(state, runErr)
	run.cancel()
}

// lastHookOf extracts the hook name carried by a terminal error.
func lastHookOf(err error) string {
	var (
		hookErr   *HookError
		stepErr   *StepError
		cancelErr *CancellationError
		maxErr    *MaxStepsError
		panicErr  *PanicError
	)
	switch {
	case errors.As(err, &hookErr):
		return hookErr.Hook
	case errors.As(err, &stepErr):
		return stepErr.Hook
	case errors.As(err, &cancelErr):
		return cancelErr.Hook
	case errors.As(err, &maxErr):
		return maxErr.Hook
	case errors.As(err, &panicErr):
		return panicErr.Hook
	}
	return ""
}
