package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func event(id, owner string, minute int) model.Event {
	created := base.Add(time.Duration(minute) * time.Minute)
	return model.Event{
		EventID:   id,
		OwnerID:   owner,
		EventText: "text " + id,
		EventType: "social",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Set(ctx, event("a", "u1", 0)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, "a"), docstore.ErrNotFound))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, event("a", "u1", 0)))

	require.NoError(t, s.Update(ctx, "a", map[string]any{model.FieldLocation: "Paris"}))
	got, _ := s.Get(ctx, "a")
	assert.Equal(t, "Paris", got.Location)
	assert.Equal(t, "text a", got.EventText)

	assert.True(t, errors.Is(s.Update(ctx, "missing", map[string]any{}), docstore.ErrNotFound))
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	ev := event("a", "u1", 0)
	ev.Participants = []string{"Bob"}
	require.NoError(t, s.Set(ctx, ev))

	got, _ := s.Get(ctx, "a")
	got.Participants[0] = "Mallory"

	again, _ := s.Get(ctx, "a")
	assert.Equal(t, []string{"Bob"}, again.Participants)
}

func TestOrderedQueryRequiresIndex(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, event(id, "u1", i)))
	}

	q := docstore.NewQuery().
		Where(model.FieldOwnerID, docstore.OpEq, "u1").
		OrderBy(model.FieldCreatedAt, true).
		WithLimit(2)

	_, err := s.Query(ctx, q)
	require.True(t, errors.Is(err, docstore.ErrIndexNotReady))

	require.NoError(t, s.EnsureIndex(ctx, model.FieldOwnerID, model.FieldCreatedAt))
	got, err := s.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].EventID)
	assert.Equal(t, "b", got[1].EventID)

	got, err = s.Query(ctx, q.WithOffset(2))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].EventID)
}

func TestUnorderedQueryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, event("a", "u1", 2)))
	require.NoError(t, s.Set(ctx, event("b", "u2", 1)))
	require.NoError(t, s.Set(ctx, event("c", "u1", 0)))

	got, err := s.Query(ctx, docstore.NewQuery().Where(model.FieldOwnerID, docstore.OpEq, "u1"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].EventID)
	assert.Equal(t, "c", got[1].EventID)
}

func TestRangeExcludesAbsentField(t *testing.T) {
	ctx := context.Background()
	s := New()

	dated := event("a", "u1", 0)
	d := base.Add(24 * time.Hour)
	dated.ParsedDate = &d
	require.NoError(t, s.Set(ctx, dated))
	require.NoError(t, s.Set(ctx, event("b", "u1", 1)))

	got, err := s.Query(ctx, docstore.NewQuery().
		Where(model.FieldOwnerID, docstore.OpEq, "u1").
		Where(model.FieldParsedDate, docstore.OpGte, base).
		Where(model.FieldParsedDate, docstore.OpLte, base.Add(48*time.Hour)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].EventID)
}

func TestTypeMismatchIsInvalidQuery(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, event("a", "u1", 0)))

	_, err := s.Query(ctx, docstore.NewQuery().Where(model.FieldCreatedAt, docstore.OpGte, "yesterday"))
	assert.True(t, errors.Is(err, docstore.ErrInvalidQuery))
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Get(ctx, "a")
	assert.True(t, errors.Is(err, docstore.ErrUnavailable))
	assert.True(t, errors.Is(err, context.Canceled))
}
