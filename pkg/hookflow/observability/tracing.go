package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the hookflow tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("hookflow")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts a span for an entire dispatch run.
	// Returns the context with span and the span itself.
	StartRunSpan(ctx context.Context, runID, eventKind string) (context.Context, trace.Span)

	// StartHookSpan starts a span for a hook execution.
	// The hook span should be a child of the run span.
	StartHookSpan(ctx context.Context, hook string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	// Async hooks use this to mark step boundaries.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartRunSpan starts a span for an entire dispatch run.
func (m *otelSpanManager) StartRunSpan(ctx context.Context, runID, eventKind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "hookflow.dispatch",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("event.kind", eventKind),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHookSpan starts a span for a hook execution.
func (m *otelSpanManager) StartHookSpan(ctx context.Context, hook string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "hookflow.hook."+hook,
		trace.WithAttributes(
			attribute.String("hook", hook),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
