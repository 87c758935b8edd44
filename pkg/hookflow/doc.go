/*
Package hookflow provides an event hook dispatch engine for session
management daemons.

# Overview

hookflow is the policy-execution core of a long-running process that
reacts to domain events (device, node, and link lifecycle changes) by
running registered, dependency-ordered handlers called hooks. For each
incoming event the dispatcher selects the matching hooks, orders them
by their declared before/after constraints, and runs them strictly
sequentially, either synchronously or as multi-step cooperative state
machines.

Key properties:
  - Deterministic ordering: topological sort over constraints with a
    stable registration-order tie-break
  - Configuration errors (name collisions, ordering cycles, malformed
    interest criteria) surface at registration time, not per event
  - Cooperative cancellation at step boundaries, never preemptive
  - OpenTelemetry integration for observability

# Basic Usage

Create hooks, register them with a dispatcher, and dispatch events:

	func restoreVolume(ctx hookflow.Context, evt *event.Event) error {
	    node, _ := evt.Property("node.name")
	    ctx.Logger().Debug("restoring volume", "node", node)
	    return nil
	}

	func main() {
	    h, err := hookflow.NewSimpleHook("restore-stream", restoreVolume,
	        hookflow.WithRunsAfter("find-target"),
	        hookflow.WithInterest(interest.New("node-added").
	            Constrain("media.class", interest.VerbMatches, "Stream/*")))
	    if err != nil {
	        log.Fatal(err)
	    }

	    d := hookflow.NewDispatcher()
	    if err := d.Register(h); err != nil {
	        log.Fatal(err)
	    }
	    if err := d.Start(); err != nil {
	        log.Fatal(err)
	    }
	    defer d.Stop(context.Background())

	    ctx := hookflow.NewContext(context.Background())
	    run, err := d.Dispatch(ctx, event.New("node-added", myNode,
	        event.WithProperty("node.name", "speakers")))
	    if err != nil {
	        log.Fatal(err)
	    }

	    state, err := run.Wait(context.Background())
	    fmt.Println(state) // "completed"
	}

# Ordering

Hooks declare constraints by name at construction time:

	hookflow.NewSimpleHook("link-target", linkTarget,
	    hookflow.WithRunsAfter("find-target"),
	    hookflow.WithRunsBefore("store-state"))

Constraints apply only between hooks matching the same event.
Unresolved names (hooks never registered) impose no constraint.
Unconstrained hooks keep their registration order. A cycle is a
configuration error reported by Validate() and fails any run whose
selection includes it.

# Async Hooks

Long operations are modeled as resumable state machines instead of
blocking calls. The decision function is pure; the execution function
does the work:

	next := func(evt *event.Event, state any) (string, error) {
	    if state == nil {
	        return "acquire", nil
	    }
	    return hookflow.Done, nil
	}
	exec := func(ctx hookflow.Context, evt *event.Event, step string, state any) (any, error) {
	    // may wait via ctx.Scheduler() without blocking other runs
	    return "acquired", nil
	}
	h, err := hookflow.NewAsyncHook("reserve-device", next, exec)

Cancellation is checked at every step boundary. Runaway decision
functions are stopped by the step limit (default 1000, configure with
WithMaxSteps).

# Failure Policy

By default a hook failure is logged, collected on the run handle, and
does not prevent later hooks from executing. A hook registered with
WithCritical() instead aborts the remaining sequence and marks the run
Failed with that error:

	state, err := run.Wait(ctx)
	var hookErr *hookflow.HookError
	if errors.As(err, &hookErr) {
	    log.Printf("hook %s failed: %v", hookErr.Hook, hookErr.Err)
	}
	for _, f := range run.Failures() {
	    log.Printf("non-critical: %v", f)
	}

Cancellation is a distinct terminal state (Cancelled), never conflated
with Failed. Panics in hooks are recovered and converted to PanicError
with a stack trace.

# Observability

Enable logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	d := hookflow.NewDispatcher(
	    hookflow.WithMetrics(true),
	    hookflow.WithTracing(true))
	ctx := hookflow.NewContext(context.Background(),
	    hookflow.WithLogger(logger))

Logs include structured fields: run_id, hook, duration_ms.
OpenTelemetry metrics: hookflow.hook.executions, hookflow.hook.latency_ms, etc.
OpenTelemetry tracing: hookflow.dispatch > hookflow.hook.{name} spans.

# Thread Safety

  - Dispatcher registration is NOT safe to interleave with in-flight runs
  - Dispatch() IS safe for concurrent use; runs execute FIFO, one at a time
  - Context IS safe for concurrent use (immutable)
  - state.Store implementations are safe for concurrent use

# Subpackages

  - event: immutable events with ordered string properties
  - interest: declarative matching criteria over events
  - state: persistent property storage (keyfile, SQLite, memory)
  - sched: cooperative scheduler primitive for non-blocking waits
  - config: YAML/JSON configuration loading
  - registry: ordered name-to-value registry
  - observability: logging, metrics, and tracing helpers
*/
package hookflow
