// OpenTelemetry tracing support for the pallet completion service.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps OpenTelemetry tracing with service-specific helpers.
type Tracer struct {
	tracer trace.Tracer
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: trace.NewNoopTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a new tracer with the given name.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartGatewaySpan starts a span for a remote task service call.
func (t *Tracer) StartGatewaySpan(ctx context.Context, name, taskID string) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
	}
	if taskID != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("task.id", taskID)))
	}
	return t.tracer.Start(ctx, name, opts...)
}

// EndGatewaySpan completes a gateway span, recording any error.
func (t *Tracer) EndGatewaySpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// StartWorkflowSpan starts a span for one completion workflow run.
func (t *Tracer) StartWorkflowSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "workflow.complete",
		trace.WithAttributes(attribute.String("task.id", taskID)))
}

// EndWorkflowSpan completes a workflow span with its terminal outcome.
func (t *Tracer) EndWorkflowSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("workflow.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
