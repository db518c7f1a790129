// Package api serves the event store over HTTP with a JSON envelope.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rcliao/temporal-events/internal/model"
	"github.com/rcliao/temporal-events/internal/store"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Events Temporal Features CRUD Service"

// EventStore is the subset of *store.Store the handlers use.
type EventStore interface {
	Create(ctx context.Context, payload map[string]any) (model.Event, error)
	Get(ctx context.Context, eventID string) (model.Event, error)
	Update(ctx context.Context, eventID string, payload map[string]any) (model.Event, error)
	Delete(ctx context.Context, eventID string) error
	ListByOwner(ctx context.Context, p store.ListParams) ([]model.Event, error)
	ByType(ctx context.Context, p store.TypeParams) ([]model.Event, error)
	ByDateRange(ctx context.Context, p store.DateRangeParams) ([]model.Event, error)
	Search(ctx context.Context, p store.SearchParams) ([]model.Event, error)
}

// Server routes HTTP requests to an EventStore.
type Server struct {
	events         EventStore
	logger         store.Logger
	metrics        http.Handler
	requestTimeout time.Duration
	maxBodyBytes   int64
	now            func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger.
func WithLogger(logger store.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithRequestTimeout bounds each request's context. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// NewServer returns a Server over events.
func NewServer(events EventStore, options ...Option) *Server {
	s := &Server{
		events:       events,
		maxBodyBytes: 10 << 20,
		now:          time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/events", s.handleInfo)
	mux.HandleFunc("POST /api/events", s.handleCreate)
	mux.HandleFunc("GET /api/events/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/events/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDelete)

	for _, prefix := range []string{"/api/events/owner/{ownerID}", "/api/events/user/{ownerID}"} {
		mux.HandleFunc("GET "+prefix, s.handleListByOwner)
		mux.HandleFunc("GET "+prefix+"/search", s.handleSearch)
		mux.HandleFunc("GET "+prefix+"/type/{eventType}", s.handleByType)
		mux.HandleFunc("GET "+prefix+"/date-range", s.handleByDateRange)
	}

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = s.limitBody(h)
	h = s.withTimeout(h)
	h = cors(h)
	h = securityHeaders(h)
	h = s.accessLog(h)
	h = requestID(h)
	return h
}
