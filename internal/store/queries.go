package store

import (
	"context"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
	"github.com/rcliao/temporal-events/internal/validate"
)

// ByType returns up to limit of the owner's events with the given event_type, in no
// particular order. An empty result is not an error.
func (s *Store) ByType(ctx context.Context, p TypeParams) ([]model.Event, error) {
	ctx, op := s.begin(ctx, opByType, p.OwnerID)

	if err := requireOwner(p.OwnerID); err != nil {
		return nil, op.end(err, 0)
	}
	if p.EventType == "" {
		return nil, op.end(validate.Errorf(model.FieldEventType, validate.ReasonRequired), 0)
	}

	q := docstore.NewQuery().
		Where(model.FieldOwnerID, docstore.OpEq, p.OwnerID).
		Where(model.FieldEventType, docstore.OpEq, p.EventType).
		WithLimit(normalizeLimit(p.Limit))

	events, err := s.coll.Query(ctx, q)
	if err != nil {
		return nil, op.end(err, 0)
	}
	return events, op.end(nil, len(events))
}

// ByDateRange returns up to limit of the owner's events whose parsed_date lies in the
// closed interval [Start, End]. Events without a parsed_date never match.
func (s *Store) ByDateRange(ctx context.Context, p DateRangeParams) ([]model.Event, error) {
	ctx, op := s.begin(ctx, opByDateRange, p.OwnerID)

	if err := requireOwner(p.OwnerID); err != nil {
		return nil, op.end(err, 0)
	}
	if p.Start.IsZero() {
		return nil, op.end(validate.Errorf("start", validate.ReasonRequired), 0)
	}
	if p.End.IsZero() {
		return nil, op.end(validate.Errorf("end", validate.ReasonRequired), 0)
	}
	start, end := validate.Normalize(p.Start), validate.Normalize(p.End)
	if start.After(end) {
		return nil, op.end(validate.Errorf("start", validate.ReasonInvalidRange), 0)
	}

	q := docstore.NewQuery().
		Where(model.FieldOwnerID, docstore.OpEq, p.OwnerID).
		Where(model.FieldParsedDate, docstore.OpGte, start).
		Where(model.FieldParsedDate, docstore.OpLte, end).
		WithLimit(normalizeLimit(p.Limit))

	events, err := s.coll.Query(ctx, q)
	if err != nil {
		return nil, op.end(err, 0)
	}
	return events, op.end(nil, len(events))
}
