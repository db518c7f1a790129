// Package docstore defines the document-collection contract the event store is built on.
//
// A Collection stores whole event documents keyed by event_id and answers queries built
// from equality and range conditions, an optional order-by, and limit/offset. A collection
// may refuse an ordered, filtered query at execution time because the composite index it
// needs is not available; it signals that with ErrIndexNotReady and nothing else.
package docstore

import (
	"context"
	"errors"

	"github.com/rcliao/temporal-events/internal/model"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrIndexNotReady is returned when a query needs a composite index that is not available.
	ErrIndexNotReady = errors.New("query requires an index that is not available")

	// ErrUnavailable is returned when the store cannot be reached.
	ErrUnavailable = errors.New("document store unavailable")

	// ErrInvalidQuery is returned for queries the store cannot express.
	ErrInvalidQuery = errors.New("invalid query")
)

// Collection is a keyed collection of event documents.
type Collection interface {
	// Get returns the document with the given id.
	Get(ctx context.Context, id string) (model.Event, error)

	// Set writes the full document, keyed by its EventID.
	Set(ctx context.Context, event model.Event) error

	// Update overwrites the given fields of an existing document.
	Update(ctx context.Context, id string, changes map[string]any) error

	// Delete removes the document permanently.
	Delete(ctx context.Context, id string) error

	// Query returns the documents matching q.
	Query(ctx context.Context, q Query) ([]model.Event, error)

	// Close releases the underlying handle.
	Close() error
}

// IndexProvisioner is implemented by collections whose composite indexes can be created on demand.
type IndexProvisioner interface {
	EnsureIndex(ctx context.Context, fields ...string) error
}
