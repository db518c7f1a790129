package store

import (
	"context"
	"strings"

	"github.com/rcliao/temporal-events/internal/model"
	"github.com/rcliao/temporal-events/internal/validate"
)

// SearchCandidateFactor is how many times the requested limit Search reads from the
// owner's newest events before filtering. Matches older than that window are not found.
// The limit is clamped to MaxLimit first, so the window never exceeds
// SearchCandidateFactor*MaxLimit.
const SearchCandidateFactor = 2

// Search returns up to limit of the owner's most recent events matching query, newest
// first. It filters a bounded candidate window and does no relevance ranking.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]model.Event, error) {
	ctx, op := s.begin(ctx, opSearch, p.OwnerID)

	if err := requireOwner(p.OwnerID); err != nil {
		return nil, op.end(err, 0)
	}
	if p.Query == "" {
		return nil, op.end(validate.Errorf("query", validate.ReasonRequired), 0)
	}
	limit := normalizeLimit(p.Limit)

	candidates, fallback, err := s.listing().list(ctx, opSearch, p.OwnerID, SearchCandidateFactor*limit, 0)
	op.fallback = fallback
	if err != nil {
		return nil, op.end(err, 0)
	}

	matches := []model.Event{}
	for _, ev := range candidates {
		if len(matches) == limit {
			break
		}
		if Matches(ev, p.Query) {
			matches = append(matches, ev)
		}
	}
	return matches, op.end(nil, len(matches))
}

// Matches reports whether query occurs, case-insensitively, in the event's text, type,
// subtype, location or any participant.
func Matches(ev model.Event, query string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return false
	}
	contains := func(field string) bool {
		return field != "" && strings.Contains(strings.ToLower(field), q)
	}

	if contains(ev.EventText) || contains(ev.EventType) || contains(ev.EventSubtype) || contains(ev.Location) {
		return true
	}
	for _, p := range ev.Participants {
		if contains(p) {
			return true
		}
	}
	return false
}
