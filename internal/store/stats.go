package store

import (
	"context"
	"sort"
	"time"
)

// Stats summarizes one owner's events.
type Stats struct {
	OwnerID      string      `json:"owner_id"`
	TotalEvents  int         `json:"total_events"`
	DatedEvents  int         `json:"dated_events"`
	OldestCreate *time.Time  `json:"oldest_created_at,omitempty"`
	NewestCreate *time.Time  `json:"newest_created_at,omitempty"`
	Types        []TypeStats `json:"types"`
}

// TypeStats holds per event_type counts.
type TypeStats struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// Stats summarizes the owner's events as returned by ExportOwner.
func (s *Store) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	events, err := s.ExportOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	st := &Stats{OwnerID: ownerID, TotalEvents: len(events), Types: []TypeStats{}}
	counts := map[string]int{}
	for i, ev := range events {
		counts[ev.EventType]++
		if ev.ParsedDate != nil {
			st.DatedEvents++
		}
		// events are newest first
		if i == 0 {
			t := ev.CreatedAt
			st.NewestCreate = &t
		}
		if i == len(events)-1 {
			t := ev.CreatedAt
			st.OldestCreate = &t
		}
	}

	for typ, n := range counts {
		st.Types = append(st.Types, TypeStats{EventType: typ, Count: n})
	}
	sort.Slice(st.Types, func(i, j int) bool {
		if st.Types[i].Count != st.Types[j].Count {
			return st.Types[i].Count > st.Types[j].Count
		}
		return st.Types[i].EventType < st.Types[j].EventType
	})
	return st, nil
}
