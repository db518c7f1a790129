package store

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/temporal-events/internal/docstore/memstore"
	"github.com/rcliao/temporal-events/internal/model"
)

func TestMatches(t *testing.T) {
	ev := model.Event{
		EventText:    "Coffee catch-up",
		EventType:    "social",
		EventSubtype: "meetup",
		Location:     "Blue Bottle, Oakland",
		Participants: []string{"Alice Chen", "Raj"},
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"coffee", true},
		{"CATCH", true},
		{"social", true},
		{"meet", true},
		{"oakland", true},
		{"alice", true},
		{"RAJ", true},
		{"tea", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(ev, tt.query))
		})
	}
}

func TestMatches_AbsentOptionalFields(t *testing.T) {
	ev := model.Event{EventText: "Run", EventType: "health"}
	assert.False(t, Matches(ev, "park"))
	assert.True(t, Matches(ev, "heal"))
}

func TestSearch_LunchWithBob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := payload("u1", "Lunch with Bob")
	p["participants"] = []any{"Bob"}
	created, err := s.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "social", created.EventType)

	got, err := s.Search(ctx, SearchParams{OwnerID: "u1", Query: "bob", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.EventID, got[0].EventID)
}

func TestSearch_ScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mk := func(owner string, fields map[string]any) string {
		p := payload(owner, "plain event")
		for k, v := range fields {
			p[k] = v
		}
		ev, err := s.Create(ctx, p)
		require.NoError(t, err)
		return ev.EventID
	}

	inText := mk("u1", map[string]any{"event_text": "Met ALICE for tea"})
	inType := mk("u1", map[string]any{"event_type": "alice-sync"})
	inSubtype := mk("u1", map[string]any{"event_subtype": "malice"})
	inLocation := mk("u1", map[string]any{"location": "Alice Springs"})
	inParticipant := mk("u1", map[string]any{"participants": []any{"Bob", "alice"}})
	mk("u1", map[string]any{"event_text": "Nothing here"})
	mk("u2", map[string]any{"event_text": "alice from another owner"})

	got, err := s.Search(ctx, SearchParams{OwnerID: "u1", Query: "alice", Limit: 10})
	require.NoError(t, err)

	// newest first
	assert.Equal(t, []string{inParticipant, inLocation, inSubtype, inType, inText}, eventIDs(got))
}

func TestSearch_CandidateWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// oldest event matches, followed by enough non-matching events to push it out of
	// the 2 x limit candidate window
	_, err := s.Create(ctx, payload("u1", "needle"))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := s.Create(ctx, payload("u1", fmt.Sprintf("hay %d", i)))
		require.NoError(t, err)
	}

	got, err := s.Search(ctx, SearchParams{OwnerID: "u1", Query: "needle", Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Search(ctx, SearchParams{OwnerID: "u1", Query: "needle", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearch_RespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, err := s.Create(ctx, payload("u1", "match"))
		require.NoError(t, err)
	}

	got, err := s.Search(ctx, SearchParams{OwnerID: "u1", Query: "match", Limit: 4})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestSearch_UsesFallbackWithoutIndex(t *testing.T) {
	metrics := &recordingMetrics{}
	s := newStoreOver(t, memstore.New(), WithMetrics(metrics))
	ctx := context.Background()

	p := payload("u1", "Lunch with Bob")
	_, err := s.Create(ctx, p)
	require.NoError(t, err)

	got, err := s.Search(ctx, SearchParams{OwnerID: "u1", Query: "lunch"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, metrics.fallbacks(opSearch))
}

func TestSearch_Validation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Search(context.Background(), SearchParams{OwnerID: "u1", Query: ""})
	requireValidation(t, err, "query")

	_, err = s.Search(context.Background(), SearchParams{Query: "x"})
	requireValidation(t, err, "owner_id")
}

func TestSearch_WhitespaceQueryIsASubstring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lunch, err := s.Create(ctx, payload("u1", "Lunch with Bob"))
	require.NoError(t, err)
	_, err = s.Create(ctx, payload("u1", "Gym"))
	require.NoError(t, err)

	got, err := s.Search(ctx, SearchParams{OwnerID: "u1", Query: " "})
	require.NoError(t, err)
	assert.Equal(t, []string{lunch.EventID}, eventIDs(got))
}

func TestSearch_HugeLimitsAreClamped(t *testing.T) {
	coll := &faultyCollection{Store: memstore.New(memstore.WithIndex(model.FieldOwnerID, model.FieldCreatedAt))}
	s := newStoreOver(t, coll)
	ctx := context.Background()

	p := payload("u1", "Lunch with Bob")
	_, err := s.Create(ctx, p)
	require.NoError(t, err)

	for _, limit := range []int{1 << 40, math.MaxInt/2 + 1, math.MaxInt} {
		t.Run(fmt.Sprint(limit), func(t *testing.T) {
			coll.queries = nil
			got, err := s.Search(ctx, SearchParams{OwnerID: "u1", Query: "bob", Limit: limit})
			require.NoError(t, err)
			assert.Len(t, got, 1)
			require.Len(t, coll.queries, 1)
			assert.Equal(t, SearchCandidateFactor*MaxLimit, coll.queries[0].Limit)
		})
	}
}
