package store

import (
	"context"
	"fmt"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

const exportPageSize = 100

// ExportOwner returns all of the owner's events, newest first, by paging through
// ListByOwner. On the fallback path it is bounded by the fallback fetch size.
func (s *Store) ExportOwner(ctx context.Context, ownerID string) ([]model.Event, error) {
	all := []model.Event{}
	for offset := 0; ; offset += exportPageSize {
		page, err := s.ListByOwner(ctx, ListParams{OwnerID: ownerID, Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}

// Import creates each payload in order and stops at the first failure. It returns the
// number of events created. Imported events get fresh ids and timestamps.
func (s *Store) Import(ctx context.Context, payloads []map[string]any) (int, error) {
	imported := 0
	for i, payload := range payloads {
		if _, err := s.Create(ctx, payload); err != nil {
			return imported, fmt.Errorf("import item %d: %w", i, err)
		}
		imported++
	}
	return imported, nil
}

// ListingIndexes are the composite indexes the owner-scoped queries can use.
var ListingIndexes = [][]string{
	{model.FieldOwnerID, model.FieldCreatedAt},
	{model.FieldOwnerID, model.FieldEventType},
	{model.FieldOwnerID, model.FieldParsedDate},
}

// EnsureIndexes provisions ListingIndexes when the collection supports it.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	prov, ok := s.coll.(docstore.IndexProvisioner)
	if !ok {
		return ErrIndexesUnsupported
	}
	for _, fields := range ListingIndexes {
		if err := prov.EnsureIndex(ctx, fields...); err != nil {
			return fmt.Errorf("ensure index %v: %w", fields, classify(err))
		}
	}
	if s.logger != nil {
		s.logger.Info("indexes ensured", "count", len(ListingIndexes))
	}
	return nil
}
