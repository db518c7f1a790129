// Package store provides the event store facade: validated CRUD and owner-scoped
// queries over an injected docstore.Collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
	"github.com/rcliao/temporal-events/internal/validate"
)

var (
	// ErrNotFound is returned when the addressed event does not exist.
	ErrNotFound = errors.New("event not found")

	// ErrQueryFailed is returned when the document store rejects or fails a query.
	ErrQueryFailed = errors.New("query failed")

	// ErrUnavailable is returned when the document store cannot be reached.
	ErrUnavailable = errors.New("event store unavailable")

	// ErrIndexesUnsupported is returned by EnsureIndexes for collections that cannot provision indexes.
	ErrIndexesUnsupported = errors.New("collection does not support index provisioning")
)

const (
	// DefaultLimit applies when a listing is requested with a non-positive limit.
	DefaultLimit = 20

	// MaxLimit caps every requested limit. Larger values are clamped.
	MaxLimit = 1000

	// DefaultFallbackFetchSize bounds the unordered fetch of the listing fallback.
	DefaultFallbackFetchSize = 1000
)

// ListParams selects a page of an owner's events, newest first.
type ListParams struct {
	OwnerID string
	Limit   int
	Offset  int
}

// TypeParams selects an owner's events of one type.
type TypeParams struct {
	OwnerID   string
	EventType string
	Limit     int
}

// DateRangeParams selects an owner's events whose parsed_date lies in [Start, End].
type DateRangeParams struct {
	OwnerID string
	Start   time.Time
	End     time.Time
	Limit   int
}

// SearchParams selects an owner's recent events matching a substring.
type SearchParams struct {
	OwnerID string
	Query   string
	Limit   int
}

// Store is the event store facade. It holds no mutable state of its own and is safe
// for concurrent use when the collection is.
type Store struct {
	coll              docstore.Collection
	logger            Logger
	metrics           MetricsCollector
	tracing           TracingCollector
	now               func() time.Time
	newID             func() string
	fallbackFetchSize int
}

// Option configures a Store.
type Option func(*Store) error

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		if now == nil {
			return errors.New("nil clock")
		}
		s.now = now
		return nil
	}
}

// WithIDGenerator overrides event_id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) error {
		if newID == nil {
			return errors.New("nil id generator")
		}
		s.newID = newID
		return nil
	}
}

// WithFallbackFetchSize bounds how many of an owner's events the listing fallback reads
// before sorting in memory. Pages beyond that prefix come back short.
func WithFallbackFetchSize(n int) Option {
	return func(s *Store) error {
		if n <= 0 {
			return fmt.Errorf("fallback fetch size must be positive, got %d", n)
		}
		s.fallbackFetchSize = n
		return nil
	}
}

// New creates a Store over coll.
func New(coll docstore.Collection, options ...Option) (*Store, error) {
	if coll == nil {
		return nil, errors.New("nil collection")
	}
	s := &Store{
		coll:              coll,
		now:               time.Now,
		newID:             newULID,
		fallbackFetchSize: DefaultFallbackFetchSize,
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close closes the underlying collection.
func (s *Store) Close() error {
	return s.coll.Close()
}

// newULID returns a lexically sortable id with 80 bits of randomness per millisecond.
func newULID() string {
	return ulid.Make().String()
}

func (s *Store) timestamp() time.Time {
	return validate.Normalize(s.now())
}

// classify tags a collection error with the facade error kind. The original error stays
// in the chain.
func classify(err error) error {
	var verr *validate.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return err
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrQueryFailed), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, docstore.ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrQueryFailed, err)
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return validate.Errorf(model.FieldOwnerID, validate.ReasonRequired)
	}
	return nil
}
