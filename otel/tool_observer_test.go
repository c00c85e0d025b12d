package otel_test

import (
	"context"
	"testing"
	"time"

	otelapi "go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	dumplingotel "github.com/petal-labs/dumpling-mcp/otel"
	"github.com/petal-labs/dumpling-mcp/tool"
)

// newTestMeter returns a meter backed by a manual reader for collecting metrics in tests.
func newTestMeter() (*metric.ManualReader, *metric.MeterProvider) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return reader, mp
}

// newTestTracer returns a tracer backed by an in-memory span exporter.
func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	return exporter, tp
}

// collectMetrics reads all metrics from the reader.
func collectMetrics(t *testing.T, reader *metric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return &rm
}

// findMetric searches for a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestToolObserverRecordsMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	observer, err := dumplingotel.NewToolObserver(mp.Meter("test-tool-observer"), nil)
	if err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}

	observer.ObserveInvoke(tool.ToolInvokeObservation{
		ToolName:   "search",
		DurationMS: 120,
		Success:    true,
	})
	observer.ObserveInvoke(tool.ToolInvokeObservation{
		ToolName:   "search",
		DurationMS: 30,
		Success:    false,
		ErrorCode:  tool.ToolErrorCodeUpstreamFailure,
	})

	rm := collectMetrics(t, reader)

	invocations := findMetric(rm, dumplingotel.MetricInvocations)
	if invocations == nil {
		t.Fatalf("%s metric not found", dumplingotel.MetricInvocations)
	}
	sum, ok := invocations.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s type = %T, want Sum[int64]", dumplingotel.MetricInvocations, invocations.Data)
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("data points = %d, want one per outcome", len(sum.DataPoints))
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Fatalf("total invocations = %d, want 2", total)
	}

	latency := findMetric(rm, dumplingotel.MetricLatency)
	if latency == nil {
		t.Fatalf("%s metric not found", dumplingotel.MetricLatency)
	}
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("%s type = %T, want Histogram[float64]", dumplingotel.MetricLatency, latency.Data)
	}
	var sumSeconds float64
	for _, dp := range hist.DataPoints {
		sumSeconds += dp.Sum
	}
	if sumSeconds < 0.149 || sumSeconds > 0.151 {
		t.Fatalf("latency sum = %f, want 0.15", sumSeconds)
	}
}

func TestToolObserverRecordsSpans(t *testing.T) {
	_, mp := newTestMeter()
	exporter, tp := newTestTracer()
	observer, err := dumplingotel.NewToolObserver(mp.Meter("test"), tp.Tracer("test"))
	if err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	observer.ObserveInvoke(tool.ToolInvokeObservation{
		ToolName:     "scrape",
		InvocationID: "inv-1",
		StartedAt:    start,
		DurationMS:   250,
		Success:      false,
		ErrorCode:    tool.ToolErrorCodeMissingCredential,
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != dumplingotel.SpanToolInvoke {
		t.Fatalf("span name = %q", span.Name)
	}
	if span.Status.Code != otelcodes.Error || span.Status.Description != tool.ToolErrorCodeMissingCredential {
		t.Fatalf("status = %+v", span.Status)
	}
	if !span.StartTime.Equal(start) || span.EndTime.Sub(span.StartTime) != 250*time.Millisecond {
		t.Fatalf("span timing = %s..%s", span.StartTime, span.EndTime)
	}
	attrs := map[string]string{}
	for _, kv := range span.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["tool_name"] != "scrape" || attrs["invocation_id"] != "inv-1" || attrs["error_code"] != tool.ToolErrorCodeMissingCredential {
		t.Fatalf("attributes = %v", attrs)
	}
}

func TestToolObserverAsDispatcherObserver(t *testing.T) {
	reader, mp := newTestMeter()
	observer, err := dumplingotel.NewToolObserver(mp.Meter("test"), nil)
	if err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}

	reg := tool.NewRegistry()
	if err := reg.Register(tool.Definition{
		Name: "echo",
		Handler: func(context.Context, tool.Arguments) (tool.Result, error) {
			return tool.TextResult("ok"), nil
		},
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	d := tool.NewDispatcher(reg, tool.WithObserver(observer))
	if _, err := d.Invoke(context.Background(), "echo", nil); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if _, err := d.Invoke(context.Background(), "missing", nil); err == nil {
		t.Fatal("Invoke(missing) error = nil")
	}

	rm := collectMetrics(t, reader)
	sum := findMetric(rm, dumplingotel.MetricInvocations).Data.(metricdata.Sum[int64])
	codes := map[string]bool{}
	for _, dp := range sum.DataPoints {
		if code, ok := dp.Attributes.Value("error_code"); ok {
			codes[code.AsString()] = true
		}
	}
	if !codes[tool.ToolErrorCodeUnknownTool] {
		t.Fatalf("error codes = %v, want UNKNOWN_TOOL", codes)
	}
}

func TestNilToolObserverIsSafe(t *testing.T) {
	var observer *dumplingotel.ToolObserver
	observer.ObserveInvoke(tool.ToolInvokeObservation{ToolName: "search"})
}

func TestNewProviderWithoutEndpointIsNoop(t *testing.T) {
	provider, err := dumplingotel.NewProvider(context.Background(), dumplingotel.TracingConfig{})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if provider.Enabled() {
		t.Fatal("Enabled() = true without endpoint")
	}
	_, span := provider.Tracer().Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatal("noop tracer produced a valid span context")
	}
	span.End()
	if provider.Meter() == nil {
		t.Fatal("Meter() = nil without endpoint")
	}
	if _, err := dumplingotel.NewToolObserver(provider.Meter(), provider.Tracer()); err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestNewProviderWithEndpointInstallsMeterProvider(t *testing.T) {
	prevTP := otelapi.GetTracerProvider()
	prevMP := otelapi.GetMeterProvider()
	t.Cleanup(func() {
		otelapi.SetTracerProvider(prevTP)
		otelapi.SetMeterProvider(prevMP)
	})

	provider, err := dumplingotel.NewProvider(context.Background(), dumplingotel.TracingConfig{
		Endpoint:    "127.0.0.1:4318",
		Insecure:    true,
		ServiceName: "dumpling-mcp-test",
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if !provider.Enabled() {
		t.Fatal("Enabled() = false with endpoint")
	}
	if _, ok := otelapi.GetMeterProvider().(*metric.MeterProvider); !ok {
		t.Fatalf("global MeterProvider = %T, want *metric.MeterProvider", otelapi.GetMeterProvider())
	}
	if _, err := dumplingotel.NewToolObserver(provider.Meter(), provider.Tracer()); err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}

	// Nothing listens on the endpoint; a cancelled context keeps shutdown from retrying.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = provider.Shutdown(ctx)
}

func TestNewTestProviderExportsSpans(t *testing.T) {
	exporter, tp := newTestTracer()
	provider := dumplingotel.NewTestProvider(tp)
	if !provider.Enabled() {
		t.Fatal("Enabled() = false")
	}
	_, span := provider.Tracer().Start(context.Background(), "work")
	span.End()
	if len(exporter.GetSpans()) != 1 {
		t.Fatalf("spans = %d, want 1", len(exporter.GetSpans()))
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}
