package store

import (
	"context"
	"time"

	"github.com/rcliao/temporal-events/internal/model"
	"github.com/rcliao/temporal-events/internal/validate"
)

// Create validates payload, assigns a fresh event_id, stamps created_at = updated_at
// and writes the record.
func (s *Store) Create(ctx context.Context, payload map[string]any) (model.Event, error) {
	ctx, op := s.begin(ctx, opCreate, ownerHint(payload))

	patch, err := validate.Create(payload)
	if err != nil {
		return model.Event{}, op.end(err, 0)
	}

	now := s.timestamp()
	ev := model.Event{
		EventID:   s.newID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := patch.ApplyTo(&ev); err != nil {
		return model.Event{}, op.end(err, 0)
	}

	if err := s.coll.Set(ctx, ev); err != nil {
		return model.Event{}, op.end(err, 0)
	}
	return ev, op.end(nil, 1)
}

// Get returns the event with the given id.
func (s *Store) Get(ctx context.Context, eventID string) (model.Event, error) {
	ctx, op := s.begin(ctx, opGet, "")

	if eventID == "" {
		return model.Event{}, op.end(validate.Errorf(model.FieldEventID, validate.ReasonRequired), 0)
	}
	ev, err := s.coll.Get(ctx, eventID)
	if err != nil {
		return model.Event{}, op.end(err, 0)
	}
	return ev, op.end(nil, 1)
}

// Update merges the validated fields of payload over the stored event and refreshes
// updated_at. Fields absent from payload keep their stored values. Concurrent updates
// to one event are last-write-wins.
func (s *Store) Update(ctx context.Context, eventID string, payload map[string]any) (model.Event, error) {
	ctx, op := s.begin(ctx, opUpdate, "")

	if eventID == "" {
		return model.Event{}, op.end(validate.Errorf(model.FieldEventID, validate.ReasonRequired), 0)
	}
	patch, err := validate.Update(payload)
	if err != nil {
		return model.Event{}, op.end(err, 0)
	}

	current, err := s.coll.Get(ctx, eventID)
	if err != nil {
		return model.Event{}, op.end(err, 0)
	}
	op.ownerID = current.OwnerID

	if err := patch.ApplyTo(&current); err != nil {
		return model.Event{}, op.end(err, 0)
	}
	current.UpdatedAt = s.nextUpdatedAt(current.UpdatedAt)

	changes := patch.Changes()
	changes[model.FieldUpdatedAt] = current.UpdatedAt
	if err := s.coll.Update(ctx, eventID, changes); err != nil {
		return model.Event{}, op.end(err, 0)
	}
	return current, op.end(nil, 1)
}

// Delete removes the event permanently.
func (s *Store) Delete(ctx context.Context, eventID string) error {
	ctx, op := s.begin(ctx, opDelete, "")

	if eventID == "" {
		return op.end(validate.Errorf(model.FieldEventID, validate.ReasonRequired), 0)
	}
	return op.end(s.coll.Delete(ctx, eventID), 0)
}

// nextUpdatedAt returns now, or one tick past previous when the clock has not advanced.
func (s *Store) nextUpdatedAt(previous time.Time) time.Time {
	now := s.timestamp()
	if !now.After(previous) {
		now = previous.Add(validate.Precision)
	}
	return now
}

func ownerHint(payload map[string]any) string {
	owner, _ := payload[model.FieldOwnerID].(string)
	return owner
}
