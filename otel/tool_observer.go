package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/dumpling-mcp/tool"
)

// Instrument names recorded by ToolObserver.
const (
	MetricInvocations = "dumpling.tool.invocations"
	MetricLatency     = "dumpling.tool.latency"
	SpanToolInvoke    = "tool.invoke"
)

// ToolObserver records tool invocation signals into OpenTelemetry.
type ToolObserver struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewToolObserver creates a tool observer bound to the provided meter/tracer.
// A nil tracer disables spans.
func NewToolObserver(meter metric.Meter, tracer trace.Tracer) (*ToolObserver, error) {
	invocations, err := meter.Int64Counter(
		MetricInvocations,
		metric.WithDescription("Number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		MetricLatency,
		metric.WithDescription("Tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ToolObserver{
		tracer:      tracer,
		invocations: invocations,
		latency:     latency,
	}, nil
}

// ObserveInvoke records one invocation result.
func (o *ToolObserver) ObserveInvoke(observation tool.ToolInvokeObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", observation.ToolName),
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", observation.ErrorCode))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	duration := time.Duration(observation.DurationMS) * time.Millisecond
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, duration.Seconds(), options)

	if o.tracer == nil {
		return
	}
	spanAttrs := append(attrs, attribute.String("invocation_id", observation.InvocationID))
	startOpts := []trace.SpanStartOption{trace.WithAttributes(spanAttrs...)}
	var endOpts []trace.SpanEndOption
	if !observation.StartedAt.IsZero() {
		startOpts = append(startOpts, trace.WithTimestamp(observation.StartedAt))
		endOpts = append(endOpts, trace.WithTimestamp(observation.StartedAt.Add(duration)))
	}
	_, span := o.tracer.Start(ctx, SpanToolInvoke, startOpts...)
	if !observation.Success {
		span.SetStatus(codes.Error, observation.ErrorCode)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(endOpts...)
}

var _ tool.Observer = (*ToolObserver)(nil)
