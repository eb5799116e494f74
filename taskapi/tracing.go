// Tracing decorator for the task service gateway.
package taskapi

import (
	"context"

	"github.com/warenwerk/palletkit/telemetry"
)

// TracingGateway wraps a Gateway with OpenTelemetry tracing.
type TracingGateway struct {
	gateway Gateway
}

// WithTracing wraps a gateway with tracing instrumentation.
func WithTracing(gw Gateway) Gateway {
	return &TracingGateway{gateway: gw}
}

// CreateTask implements Gateway with tracing.
func (tg *TracingGateway) CreateTask(ctx context.Context, content string, labels []string, priority int) (*Task, error) {
	ctx, span := telemetry.GetTracer().StartGatewaySpan(ctx, "taskapi.create", "")
	task, err := tg.gateway.CreateTask(ctx, content, labels, priority)
	telemetry.GetTracer().EndGatewaySpan(span, err)
	return task, err
}

// CloseTask implements Gateway with tracing.
func (tg *TracingGateway) CloseTask(ctx context.Context, taskID string) error {
	ctx, span := telemetry.GetTracer().StartGatewaySpan(ctx, "taskapi.close", taskID)
	err := tg.gateway.CloseTask(ctx, taskID)
	telemetry.GetTracer().EndGatewaySpan(span, err)
	return err
}

// GetTask implements Gateway with tracing.
func (tg *TracingGateway) GetTask(ctx context.Context, taskID string) (*Task, error) {
	ctx, span := telemetry.GetTracer().StartGatewaySpan(ctx, "taskapi.get", taskID)
	task, err := tg.gateway.GetTask(ctx, taskID)
	telemetry.GetTracer().EndGatewaySpan(span, err)
	return task, err
}

// ListOpenByLabel implements Gateway with tracing.
func (tg *TracingGateway) ListOpenByLabel(ctx context.Context, label string) ([]Task, error) {
	ctx, span := telemetry.GetTracer().StartGatewaySpan(ctx, "taskapi.list_by_label", "")
	tasks, err := tg.gateway.ListOpenByLabel(ctx, label)
	telemetry.GetTracer().EndGatewaySpan(span, err)
	return tasks, err
}

// ListOpenByProject implements Gateway with tracing.
func (tg *TracingGateway) ListOpenByProject(ctx context.Context) ([]Task, error) {
	ctx, span := telemetry.GetTracer().StartGatewaySpan(ctx, "taskapi.list_by_project", "")
	tasks, err := tg.gateway.ListOpenByProject(ctx)
	telemetry.GetTracer().EndGatewaySpan(span, err)
	return tasks, err
}

// ListLabels implements Gateway with tracing.
func (tg *TracingGateway) ListLabels(ctx context.Context) ([]Label, error) {
	ctx, span := telemetry.GetTracer().StartGatewaySpan(ctx, "taskapi.list_labels", "")
	labels, err := tg.gateway.ListLabels(ctx)
	telemetry.GetTracer().EndGatewaySpan(span, err)
	return labels, err
}
