package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rcliao/temporal-events/internal/docstore/memstore"
	"github.com/rcliao/temporal-events/internal/store"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "owner_id", "u1")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"owner_id":"u1"`)

	_, err = NewLogger(&buf, "loud", FormatText)
	assert.Error(t, err)
	_, err = NewLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func TestPrometheusCollector(t *testing.T) {
	c := NewPrometheusCollector()

	c.IncrementCounter(store.MetricListingFallback, map[string]string{"operation": "search"})
	c.IncrementCounter(store.MetricListingFallback, map[string]string{"operation": "search"})
	c.IncrementCounter("unknown_total", map[string]string{"operation": "search"})
	c.RecordDuration(store.MetricOperationDuration, 20*time.Millisecond,
		map[string]string{"operation": "create", "status": store.StatusSuccess})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("search")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.durations, store.MetricOperationDuration))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), store.MetricListingFallback+`{operation="search"} 2`))
}

func TestPrometheusCollector_WiredToStore(t *testing.T) {
	c := NewPrometheusCollector()
	s, err := store.New(memstore.New(), store.WithMetrics(c))
	require.NoError(t, err)

	_, err = s.ListByOwner(context.Background(), store.ListParams{OwnerID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.fallbacks.WithLabelValues("list_by_owner")))
}

func newRecordingTracer() (*TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return NewTracingCollector(provider.Tracer(TracerName)), exporter
}

func spanAttr(span tracetest.SpanStub, key string) (string, bool) {
	for _, kv := range span.Attributes {
		if kv.Key == attribute.Key(key) {
			return kv.Value.AsString(), true
		}
	}
	return "", false
}

func TestTracingCollector_StatusMapping(t *testing.T) {
	tests := []struct {
		status   string
		wantCode codes.Code
	}{
		{store.StatusSuccess, codes.Ok},
		{store.StatusQueryFailed, codes.Error},
		{store.StatusUnavailable, codes.Error},
		{store.StatusNotFound, codes.Unset},
		{store.StatusValidationError, codes.Unset},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			collector, exporter := newRecordingTracer()
			_, span := collector.StartSpan(context.Background(), "events.get", map[string]string{"operation": "get"})
			collector.FinishSpan(span, tt.status, map[string]string{"result_count": "0"})

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantCode, spans[0].Status.Code)
			v, ok := spanAttr(spans[0], "result_count")
			assert.True(t, ok)
			assert.Equal(t, "0", v)
		})
	}
}

func TestTracingCollector_WiredToStore(t *testing.T) {
	collector, exporter := newRecordingTracer()
	s, err := store.New(memstore.New(), store.WithTracing(collector))
	require.NoError(t, err)

	_, err = s.Search(context.Background(), store.SearchParams{OwnerID: "u1", Query: "lunch"})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "events.search", spans[0].Name)

	owner, _ := spanAttr(spans[0], "owner_id")
	assert.Equal(t, "u1", owner)
	fallback, _ := spanAttr(spans[0], "fallback")
	assert.Equal(t, "true", fallback)
}
