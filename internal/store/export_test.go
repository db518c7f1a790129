package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rcliao/temporal-events/internal/docstore/memstore"
)

func TestExportOwner_PagesThroughEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = exportPageSize + 7
	for i := 0; i < n; i++ {
		if _, err := s.Create(ctx, payload("u1", fmt.Sprintf("event %d", i))); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Create(ctx, payload("u2", "other")); err != nil {
		t.Fatal(err)
	}

	events, err := s.ExportOwner(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != n {
		t.Fatalf("expected %d events, got %d", n, len(events))
	}
	if events[0].EventText != fmt.Sprintf("event %d", n-1) {
		t.Fatalf("expected newest first, got %q", events[0].EventText)
	}
}

func TestImport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payloads := []map[string]any{
		payload("u1", "one"),
		payload("u1", "two"),
		{"owner_id": "u1"},
		payload("u1", "never reached"),
	}

	n, err := s.Import(ctx, payloads)
	if n != 2 {
		t.Fatalf("expected 2 imported, got %d", n)
	}
	if err == nil {
		t.Fatal("expected error for invalid item")
	}

	events, err := s.ExportOwner(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 stored events, got %d", len(events))
	}
}

func TestEnsureIndexes(t *testing.T) {
	coll := memstore.New()
	s := newStoreOver(t, coll)
	ctx := context.Background()

	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatal(err)
	}

	// the ordered listing no longer needs the fallback
	metrics := &recordingMetrics{}
	s = newStoreOver(t, coll, WithMetrics(metrics))
	if _, err := s.ListByOwner(ctx, ListParams{OwnerID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if got := metrics.fallbacks(opListByOwner); got != 0 {
		t.Fatalf("expected no fallback, got %d", got)
	}
}

type plainCollection struct{ *memstore.Store }

// EnsureIndex is shadowed so the collection no longer satisfies IndexProvisioner.
func (plainCollection) EnsureIndex() {}

func TestEnsureIndexes_Unsupported(t *testing.T) {
	s := newStoreOver(t, plainCollection{memstore.New()})
	if err := s.EnsureIndexes(context.Background()); !errors.Is(err, ErrIndexesUnsupported) {
		t.Fatalf("expected ErrIndexesUnsupported, got %v", err)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, typ := range []string{"work", "social", "work"} {
		p := payload("u1", "x")
		p["event_type"] = typ
		if typ == "social" {
			p["parsed_date"] = "2024-01-01"
		}
		if _, err := s.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	st, err := s.Stats(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalEvents != 3 || st.DatedEvents != 1 {
		t.Fatalf("unexpected totals: %+v", st)
	}
	want := []TypeStats{{EventType: "work", Count: 2}, {EventType: "social", Count: 1}}
	if fmt.Sprint(st.Types) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, st.Types)
	}
	if st.NewestCreate == nil || st.OldestCreate == nil || !st.NewestCreate.After(*st.OldestCreate) {
		t.Fatalf("unexpected created range: %v .. %v", st.OldestCreate, st.NewestCreate)
	}

	empty, err := s.Stats(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalEvents != 0 || empty.NewestCreate != nil {
		t.Fatalf("expected empty stats, got %+v", empty)
	}
}
