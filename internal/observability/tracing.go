package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/rcliao/temporal-events/internal/store"
)

// TracerName is the instrumentation scope for event store spans.
const TracerName = "github.com/rcliao/temporal-events/internal/store"

// TracingCollector implements store.TracingCollector using the OpenTelemetry tracing API.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector wraps a tracer obtained from a TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// NewTracerProvider returns an SDK provider that samples every span and
// forwards them to the given exporters in batches.
func NewTracerProvider(exporters ...sdktrace.SpanExporter) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}
	for _, exp := range exporters {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// StartSpan starts a span carrying attrs and returns the derived context.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, store.SpanContext) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(kv...))
	return ctx, &SpanContext{span: span}
}

// FinishSpan sets the final attributes and status and ends the span.
func (t *TracingCollector) FinishSpan(spanCtx store.SpanContext, status string, attrs map[string]string) {
	sc, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}
	for k, v := range attrs {
		sc.span.SetAttributes(attribute.String(k, v))
	}
	sc.SetStatus(status)
	sc.span.End()
}

// SpanContext wraps an OpenTelemetry span.
type SpanContext struct {
	span trace.Span
}

// SetStatus maps a store status to an OpenTelemetry status code. Caller
// errors (validation, not found) leave the span unset and are kept as an attribute.
func (s *SpanContext) SetStatus(status string) {
	switch status {
	case store.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case store.StatusQueryFailed:
		s.span.SetStatus(codes.Error, "query failed")
	case store.StatusUnavailable:
		s.span.SetStatus(codes.Error, "store unavailable")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// AddAttribute sets a string attribute on the span.
func (s *SpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var (
	_ store.TracingCollector = (*TracingCollector)(nil)
	_ store.SpanContext      = (*SpanContext)(nil)
)
