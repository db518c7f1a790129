package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/temporal-events/internal/validate"
)

func TestByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, typ := range []string{"social", "work", "social", "health"} {
		p := payload("u1", "x")
		p["event_type"] = typ
		_, err := s.Create(ctx, p)
		require.NoError(t, err)
	}
	_, err := s.Create(ctx, payload("u2", "x"))
	require.NoError(t, err)

	got, err := s.ByType(ctx, TypeParams{OwnerID: "u1", EventType: "social"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, ev := range got {
		assert.Equal(t, "u1", ev.OwnerID)
		assert.Equal(t, "social", ev.EventType)
	}

	got, err = s.ByType(ctx, TypeParams{OwnerID: "u1", EventType: "social", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.ByType(ctx, TypeParams{OwnerID: "u1", EventType: "travel"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.ByType(ctx, TypeParams{OwnerID: "u1"})
	requireValidation(t, err, "event_type")
}

func TestByDateRange_InclusiveBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dated := map[string]string{
		"before start":   "2023-12-31T23:59:59.999Z",
		"on start":       "2024-01-01T00:00:00Z",
		"inside":         "2024-01-15T12:00:00Z",
		"on end":         "2024-01-31T00:00:00Z",
		"after end":      "2024-01-31T00:00:00.001Z",
		"other owner in": "2024-01-10T00:00:00Z",
	}
	ids := map[string]string{}
	for name, d := range dated {
		owner := "u1"
		if name == "other owner in" {
			owner = "u2"
		}
		p := payload(owner, name)
		p["parsed_date"] = d
		ev, err := s.Create(ctx, p)
		require.NoError(t, err)
		ids[name] = ev.EventID
	}
	_, err := s.Create(ctx, payload("u1", "undated"))
	require.NoError(t, err)

	start, err := validate.ParseDate("2024-01-01")
	require.NoError(t, err)
	end, err := validate.ParseDate("2024-01-31")
	require.NoError(t, err)

	got, err := s.ByDateRange(ctx, DateRangeParams{OwnerID: "u1", Start: start, End: end})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ids["on start"], ids["inside"], ids["on end"]}, eventIDs(got))
}

func TestByDateRange_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.ByDateRange(ctx, DateRangeParams{OwnerID: "u1", Start: jan.Add(time.Hour), End: jan})
	requireValidation(t, err, "start")

	_, err = s.ByDateRange(ctx, DateRangeParams{OwnerID: "u1", Start: jan})
	requireValidation(t, err, "end")

	got, err := s.ByDateRange(ctx, DateRangeParams{OwnerID: "u1", Start: jan, End: jan})
	require.NoError(t, err)
	assert.Empty(t, got)
}
