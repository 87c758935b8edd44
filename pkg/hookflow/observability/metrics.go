package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records hookflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordHookExecution records a hook execution with its duration and
	// error status.
	RecordHookExecution(ctx context.Context, hook string, duration time.Duration, err error)

	// RecordDispatchRun records a completed dispatch run with its
	// terminal state.
	RecordDispatchRun(ctx context.Context, state string, duration time.Duration)

	// RecordStateSave records a state store write.
	RecordStateSave(ctx context.Context, name string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	hookExecutions  metric.Int64Counter
	hookLatency     metric.Float64Histogram
	hookErrors      metric.Int64Counter
	dispatchRuns    metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	stateSaveSize   metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("hookflow")

	hookExecutions, err := meter.Int64Counter("hookflow.hook.executions",
		metric.WithDescription("Number of hook executions"),
	)
	if err != nil {
		return nil, err
	}

	hookLatency, err := meter.Float64Histogram("hookflow.hook.latency_ms",
		metric.WithDescription("Hook execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	hookErrors, err := meter.Int64Counter("hookflow.hook.errors",
		metric.WithDescription("Number of hook execution errors"),
	)
	if err != nil {
		return nil, err
	}

	dispatchRuns, err := meter.Int64Counter("hookflow.dispatch.runs",
		metric.WithDescription("Number of dispatch runs"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("hookflow.dispatch.latency_ms",
		metric.WithDescription("Dispatch run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stateSaveSize, err := meter.Int64Histogram("hookflow.state.save_bytes",
		metric.WithDescription("State save size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		hookExecutions:  hookExecutions,
		hookLatency:     hookLatency,
		hookErrors:      hookErrors,
		dispatchRuns:    dispatchRuns,
		dispatchLatency: dispatchLatency,
		stateSaveSize:   stateSaveSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordHookExecution records a hook execution.
func (m *otelMetrics) RecordHookExecution(ctx context.Context, hook string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("hook", hook),
	}

	m.hookExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.hookLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.hookErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordDispatchRun records a dispatch run.
func (m *otelMetrics) RecordDispatchRun(ctx context.Context, state string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("state", state),
	}
	m.dispatchRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordStateSave records a state store write.
func (m *otelMetrics) RecordStateSave(ctx context.Context, name string, sizeBytes int64) {
	attrs := []attribute.KeyValue{
		attribute.String("state", name),
	}
	m.stateSaveSize.Record(ctx, sizeBytes, metric.WithAttributes(attrs...))
}
