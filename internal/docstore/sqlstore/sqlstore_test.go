package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

var base = time.Date(2024, 3, 1, 9, 30, 0, 123456000, time.UTC)

func newTestStore(t *testing.T, options ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := OpenSQLite(context.Background(), path, options...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachBackend runs fn against SQLite and, when a DSN is provided, PostgreSQL.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store), options ...Option) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newTestStore(t, options...))
	})

	dsn := os.Getenv("TEMPORAL_EVENTS_TEST_POSTGRES_DSN")
	for _, driverName := range []string{DriverPGX, DriverPQ} {
		t.Run("postgres-"+driverName, func(t *testing.T) {
			if dsn == "" {
				t.Skip("TEMPORAL_EVENTS_TEST_POSTGRES_DSN not set")
			}
			table := fmt.Sprintf("events_test_%s_%d", driverName, time.Now().UnixNano())
			s, err := OpenPostgres(context.Background(),
				PostgresConfig{DSN: dsn, Driver: driverName},
				append([]Option{WithTable(table)}, options...)...)
			require.NoError(t, err)
			t.Cleanup(func() {
				s.db.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
				s.Close()
			})
			fn(t, s)
		})
	}
}

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

func TestRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		d := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
		score, conf := 0.7, 1.0
		ev := event("e1", "u1", 0)
		ev.EventSubtype = "lunch"
		ev.ParsedDate = &d
		ev.OriginalDateText = "yesterday"
		ev.Participants = []string{"Bob", "Alice"}
		ev.Location = "Cafe"
		ev.ImportanceScore = &score
		ev.Confidence = &conf
		ev.EmotionalContext = `{"mood":"happy"}`

		require.NoError(t, s.Set(ctx, ev))

		got, err := s.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, ev.EventText, got.EventText)
		assert.Equal(t, ev.Participants, got.Participants)
		assert.True(t, ev.CreatedAt.Equal(got.CreatedAt))
		require.NotNil(t, got.ParsedDate)
		assert.True(t, d.Equal(*got.ParsedDate))
		require.NotNil(t, got.Confidence)
		assert.Equal(t, 1.0, *got.Confidence)
		assert.Equal(t, `{"mood":"happy"}`, got.EmotionalContext)
	})
}

func TestAbsentOptionalFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, event("e1", "u1", 0)))

		got, err := s.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Nil(t, got.ParsedDate)
		assert.Nil(t, got.ImportanceScore)
		assert.Nil(t, got.Participants)
		assert.Empty(t, got.Location)
	})
}

func TestNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		_, err := s.Get(ctx, "missing")
		assert.True(t, errors.Is(err, docstore.ErrNotFound))
		assert.True(t, errors.Is(s.Delete(ctx, "missing"), docstore.ErrNotFound))
		assert.True(t, errors.Is(s.Update(ctx, "missing", map[string]any{model.FieldLocation: "x"}), docstore.ErrNotFound))
	})
}

func TestUpdateAndDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, event("e1", "u1", 0)))

		later := base.Add(time.Hour)
		require.NoError(t, s.Update(ctx, "e1", map[string]any{
			model.FieldLocation:     "Paris",
			model.FieldParticipants: []string{"Carol"},
			model.FieldUpdatedAt:    later,
		}))

		got, err := s.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "Paris", got.Location)
		assert.Equal(t, []string{"Carol"}, got.Participants)
		assert.True(t, later.Equal(got.UpdatedAt))
		assert.Equal(t, "text e1", got.EventText)

		err = s.Update(ctx, "e1", map[string]any{model.FieldOwnerID: "u2"})
		assert.True(t, errors.Is(err, docstore.ErrInvalidQuery))

		require.NoError(t, s.Delete(ctx, "e1"))
		_, err = s.Get(ctx, "e1")
		assert.True(t, errors.Is(err, docstore.ErrNotFound))
	})
}

func TestSetOverwrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		ev := event("e1", "u1", 0)
		require.NoError(t, s.Set(ctx, ev))

		ev.EventText = "rewritten"
		require.NoError(t, s.Set(ctx, ev))

		got, err := s.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "rewritten", got.EventText)
	})
}

func TestOrderedPagination(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		for i, id := range []string{"a", "b", "c", "d"} {
			require.NoError(t, s.Set(ctx, event(id, "u1", i)))
		}
		require.NoError(t, s.Set(ctx, event("x", "u2", 9)))

		q := docstore.NewQuery().
			Where(model.FieldOwnerID, docstore.OpEq, "u1").
			OrderBy(model.FieldCreatedAt, true).
			WithLimit(2)

		page1, err := s.Query(ctx, q)
		require.NoError(t, err)
		page2, err := s.Query(ctx, q.WithOffset(2))
		require.NoError(t, err)

		assert.Equal(t, []string{"d", "c"}, ids(page1))
		assert.Equal(t, []string{"b", "a"}, ids(page2))
	})
}

func TestIndexEnforcement(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, event("a", "u1", 0)))

		q := docstore.NewQuery().
			Where(model.FieldOwnerID, docstore.OpEq, "u1").
			OrderBy(model.FieldCreatedAt, true).
			WithLimit(10)

		_, err := s.Query(ctx, q)
		require.True(t, errors.Is(err, docstore.ErrIndexNotReady))

		// unordered queries never need the composite index
		got, err := s.Query(ctx, docstore.NewQuery().Where(model.FieldOwnerID, docstore.OpEq, "u1"))
		require.NoError(t, err)
		assert.Len(t, got, 1)

		require.NoError(t, s.EnsureIndex(ctx, q.IndexFields()...))
		got, err = s.Query(ctx, q)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}, WithIndexEnforcement(true))
}

func TestDateRangeSkipsUndated(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 31, 23, 59, 59, 999000000, time.UTC)
		inside, edge, outside := start.Add(24*time.Hour), end, end.Add(time.Millisecond)

		for i, d := range []*time.Time{&inside, &edge, &outside, nil} {
			ev := event(string(rune('a'+i)), "u1", i)
			ev.ParsedDate = d
			require.NoError(t, s.Set(ctx, ev))
		}

		got, err := s.Query(ctx, docstore.NewQuery().
			Where(model.FieldOwnerID, docstore.OpEq, "u1").
			Where(model.FieldParsedDate, docstore.OpGte, start).
			Where(model.FieldParsedDate, docstore.OpLte, end))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, ids(got))
	})
}

func TestQueryRejectsUnknownField(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Query(context.Background(), docstore.NewQuery().Where("participants", docstore.OpEq, "Bob"))
	assert.True(t, errors.Is(err, docstore.ErrInvalidQuery))
}

func TestWithTableValidatesName(t *testing.T) {
	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"), WithTable("events; DROP"))
	assert.Error(t, err)
}

func TestOpenPostgresRejectsMaxConnsOverflow(t *testing.T) {
	for _, n := range []int{-1, math.MaxInt32 + 1} {
		_, err := OpenPostgres(context.Background(), PostgresConfig{DSN: "postgres://localhost/none", MaxConns: n})
		assert.ErrorContains(t, err, "max conns out of range")
	}
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "e1")
	assert.True(t, errors.Is(err, docstore.ErrUnavailable))
}

func ids(events []model.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.EventID
	}
	return out
}
