package store

import (
	"context"
	"errors"
	"sort"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
	"github.com/rcliao/temporal-events/internal/validate"
)

// ListByOwner returns a page of the owner's events, newest first. When the collection
// cannot serve the ordered query it falls back to an unordered, bounded fetch sorted in
// memory; the caller cannot tell the two paths apart.
func (s *Store) ListByOwner(ctx context.Context, p ListParams) ([]model.Event, error) {
	ctx, op := s.begin(ctx, opListByOwner, p.OwnerID)

	if err := requireOwner(p.OwnerID); err != nil {
		return nil, op.end(err, 0)
	}
	if p.Offset < 0 {
		return nil, op.end(validate.Errorf("offset", validate.ReasonNegative), 0)
	}

	events, fallback, err := s.listing().list(ctx, opListByOwner, p.OwnerID, normalizeLimit(p.Limit), p.Offset)
	op.fallback = fallback
	if err != nil {
		return nil, op.end(err, 0)
	}
	return events, op.end(nil, len(events))
}

// ownerListing is the two-step newest-first listing: an ordered, paginated query first,
// and only on docstore.ErrIndexNotReady the bounded in-memory fallback.
type ownerListing struct {
	coll       docstore.Collection
	fetchSize  int
	onFallback func(operation, ownerID string, cause error)
}

func (s *Store) listing() ownerListing {
	return ownerListing{
		coll:       s.coll,
		fetchSize:  s.fallbackFetchSize,
		onFallback: s.recordFallback,
	}
}

// list reports whether the fallback path served the page.
func (l ownerListing) list(ctx context.Context, operation, ownerID string, limit, offset int) ([]model.Event, bool, error) {
	ordered := docstore.NewQuery().
		Where(model.FieldOwnerID, docstore.OpEq, ownerID).
		OrderBy(model.FieldCreatedAt, true).
		WithLimit(limit).
		WithOffset(offset)

	events, err := l.coll.Query(ctx, ordered)
	if err == nil {
		return events, false, nil
	}
	if !errors.Is(err, docstore.ErrIndexNotReady) {
		return nil, false, err
	}

	if l.onFallback != nil {
		l.onFallback(operation, ownerID, err)
	}

	unordered := docstore.NewQuery().
		Where(model.FieldOwnerID, docstore.OpEq, ownerID).
		WithLimit(l.fetchSize)

	all, err := l.coll.Query(ctx, unordered)
	if err != nil {
		return nil, true, err
	}
	return SortAndPage(all, limit, offset), true, nil
}

// SortAndPage orders events newest first (ties broken by event_id, descending) and returns
// at most limit of them starting at offset. A non-positive limit returns the rest of the
// sequence. The input slice is not modified.
func SortAndPage(events []model.Event, limit, offset int) []model.Event {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.EventID > b.EventID
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(sorted) {
		return []model.Event{}
	}
	sorted = sorted[offset:]
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
