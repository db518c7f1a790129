package firestorestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", status.Error(codes.NotFound, "no document"), docstore.ErrNotFound},
		{
			"missing index",
			status.Error(codes.FailedPrecondition, "The query requires an index. You can create it here: https://console.firebase.google.com/..."),
			docstore.ErrIndexNotReady,
		},
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), docstore.ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "timeout"), docstore.ErrUnavailable},
		{"context", fmt.Errorf("rpc: %w", context.DeadlineExceeded), docstore.ErrUnavailable},
		{"invalid", status.Error(codes.InvalidArgument, "bad filter"), docstore.ErrInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(classify(tt.err), tt.want))
		})
	}
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	other := status.Error(codes.FailedPrecondition, "transaction aborted")
	got := classify(other)
	assert.False(t, errors.Is(got, docstore.ErrIndexNotReady))
	assert.Equal(t, other, got)
	assert.Nil(t, classify(nil))
}

func TestEmulatorRoundTrip(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{
		ProjectID:  "temporal-events-test",
		Collection: fmt.Sprintf("events_%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	defer s.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, model.Event{
			EventID:   id,
			OwnerID:   "u1",
			EventText: "text " + id,
			EventType: "social",
			CreatedAt: created.Add(time.Duration(i) * time.Minute),
			UpdatedAt: created.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "text b", got.EventText)

	require.NoError(t, s.Update(ctx, "b", map[string]any{model.FieldLocation: "Paris"}))
	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Location)

	events, err := s.Query(ctx, docstore.NewQuery().
		Where(model.FieldOwnerID, docstore.OpEq, "u1").
		OrderBy(model.FieldCreatedAt, true).
		WithLimit(2))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].EventID)

	require.NoError(t, s.Delete(ctx, "b"))
	assert.True(t, errors.Is(s.Delete(ctx, "b"), docstore.ErrNotFound))
	_, err = s.Get(ctx, "b")
	assert.True(t, errors.Is(err, docstore.ErrNotFound))
}
