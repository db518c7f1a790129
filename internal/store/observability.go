package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rcliao/temporal-events/internal/validate"
)

// Metric names reported to the MetricsCollector.
const (
	MetricOperationDuration = "events_operation_duration_seconds"
	MetricListingFallback   = "events_listing_fallback_total"
)

// Status values used for metric labels and span status.
const (
	StatusSuccess         = "success"
	StatusValidationError = "validation_error"
	StatusNotFound        = "not_found"
	StatusQueryFailed     = "query_failed"
	StatusUnavailable     = "unavailable"
)

const (
	opCreate      = "create"
	opGet         = "get"
	opUpdate      = "update"
	opDelete      = "delete"
	opListByOwner = "list_by_owner"
	opByType      = "by_type"
	opByDateRange = "by_date_range"
	opSearch      = "search"

	logMsgListingFallback = "ordered listing not servable, using in-memory fallback"
	logMsgOperationFailed = "event store operation failed"
	logMsgOperationDone   = "event store operation completed"

	logAttrOperation   = "operation"
	logAttrOwnerID     = "owner_id"
	logAttrError       = "error"
	logAttrStatus      = "status"
	logAttrResultCount = "result_count"
	logAttrFallback    = "fallback"
	logAttrDurationMS  = "duration_ms"
	logAttrFetchSize   = "fetch_size"

	labelOperation = "operation"
	labelStatus    = "status"
)

// Logger is the structured logger the facade reports to. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector receives operation timings and counters.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
}

// SpanContext is an in-flight tracing span.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector starts and finishes one span per facade operation.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(span SpanContext, status string, attrs map[string]string)
}

// WithLogger sets the logger. A nil logger keeps the store silent.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(s *Store) error {
		s.metrics = metrics
		return nil
	}
}

// WithTracing sets the tracing collector.
func WithTracing(tracing TracingCollector) Option {
	return func(s *Store) error {
		s.tracing = tracing
		return nil
	}
}

// operation tracks one facade call from start to result.
type operation struct {
	s        *Store
	name     string
	ownerID  string
	start    time.Time
	span     SpanContext
	fallback bool
}

func (s *Store) begin(ctx context.Context, name, ownerID string) (context.Context, *operation) {
	op := &operation{s: s, name: name, ownerID: ownerID, start: time.Now()}
	if s.tracing != nil {
		attrs := map[string]string{logAttrOperation: name}
		if ownerID != "" {
			attrs[logAttrOwnerID] = ownerID
		}
		ctx, op.span = s.tracing.StartSpan(ctx, "events."+name, attrs)
	}
	return ctx, op
}

// end classifies err, records it and returns the classified error.
func (op *operation) end(err error, resultCount int) error {
	err = classify(err)
	status := statusOf(err)
	elapsed := time.Since(op.start)

	if op.s.metrics != nil {
		op.s.metrics.RecordDuration(MetricOperationDuration, elapsed, map[string]string{
			labelOperation: op.name,
			labelStatus:    status,
		})
	}

	if op.span != nil {
		attrs := map[string]string{
			logAttrResultCount: strconv.Itoa(resultCount),
			logAttrFallback:    strconv.FormatBool(op.fallback),
		}
		if err != nil {
			attrs[logAttrError] = err.Error()
		}
		op.s.tracing.FinishSpan(op.span, status, attrs)
	}

	if op.s.logger != nil {
		switch status {
		case StatusQueryFailed, StatusUnavailable:
			op.s.logger.Error(logMsgOperationFailed,
				logAttrOperation, op.name,
				logAttrOwnerID, op.ownerID,
				logAttrStatus, status,
				logAttrError, err.Error())
		default:
			op.s.logger.Debug(logMsgOperationDone,
				logAttrOperation, op.name,
				logAttrStatus, status,
				logAttrResultCount, resultCount,
				logAttrFallback, op.fallback,
				logAttrDurationMS, elapsed.Milliseconds())
		}
	}
	return err
}

func (s *Store) recordFallback(name, ownerID string, cause error) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(MetricListingFallback, map[string]string{labelOperation: name})
	}
	if s.logger != nil {
		s.logger.Warn(logMsgListingFallback,
			logAttrOperation, name,
			logAttrOwnerID, ownerID,
			logAttrFetchSize, s.fallbackFetchSize,
			logAttrError, cause.Error())
	}
}

func statusOf(err error) string {
	var verr *validate.ValidationError
	switch {
	case err == nil:
		return StatusSuccess
	case errors.As(err, &verr):
		return StatusValidationError
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return StatusUnavailable
	}
	return StatusQueryFailed
}
