// Package observability provides production-grade observability features
// for hookflow: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds dispatch context to a logger.
// Returns a new logger with run_id and hook fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "restore-stream")
//	enriched.Info("doing work") // includes run_id, hook
func EnrichLogger(logger *slog.Logger, runID, hook string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("hook", hook),
	)
}

// LogRunStart logs the start of a dispatch run.
func LogRunStart(logger *slog.Logger, runID, eventKind string) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch run starting",
		slog.String("run_id", runID),
		slog.String("event_kind", eventKind),
	)
}

// LogRunComplete logs a dispatch run reaching its terminal state.
func LogRunComplete(logger *slog.Logger, runID, state string, durationMs float64, hookCount int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch run finished",
		slog.String("run_id", runID),
		slog.String("state", state),
		slog.Float64("duration_ms", durationMs),
		slog.Int("hooks_executed", hookCount),
	)
}

// LogRunError logs a dispatch run failing on a critical hook.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastHook string) {
	if logger == nil {
		return
	}
	logger.Error("dispatch run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_hook", lastHook),
	)
}

// LogHookStart logs hook execution start.
func LogHookStart(logger *slog.Logger, hook string) {
	if logger == nil {
		return
	}
	logger.Debug("hook starting",
		slog.String("hook", hook),
	)
}

// LogHookComplete logs successful hook completion.
func LogHookComplete(logger *slog.Logger, hook string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("hook completed",
		slog.String("hook", hook),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHookError logs a non-critical hook failure.
// Non-critical failures do not stop the run, so this is the only place
// they surface.
func LogHookError(logger *slog.Logger, hook string, err error) {
	if logger == nil {
		return
	}
	logger.Error("hook failed",
		slog.String("hook", hook),
		slog.String("error", err.Error()),
	)
}

// LogStep logs an async hook advancing to a step.
func LogStep(logger *slog.Logger, hook, step string) {
	if logger == nil {
		return
	}
	logger.Debug("hook step",
		slog.String("hook", hook),
		slog.String("step", step),
	)
}

// LogStateSaveError logs a state save failure (non-fatal).
func LogStateSaveError(logger *slog.Logger, name string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("state save failed",
		slog.String("state", name),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
