// Package memstore provides an in-process docstore.Collection.
//
// Composite indexes must be declared (WithIndex or EnsureIndex) before ordered,
// filtered queries are served; without one such queries fail with
// docstore.ErrIndexNotReady, as a hosted document database would.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

// Store is a goroutine-safe in-memory collection.
type Store struct {
	mu      sync.RWMutex
	docs    map[string]model.Event
	order   []string // insertion order, the "natural" order of unordered queries
	indexes map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithIndex declares a composite index over fields.
func WithIndex(fields ...string) Option {
	return func(s *Store) {
		s.indexes[indexKey(fields)] = true
	}
}

// New creates an empty Store.
func New(options ...Option) *Store {
	s := &Store{
		docs:    make(map[string]model.Event),
		indexes: make(map[string]bool),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// EnsureIndex declares a composite index over fields.
func (s *Store) EnsureIndex(_ context.Context, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[indexKey(fields)] = true
	return nil
}

// DropIndex removes a previously declared index.
func (s *Store) DropIndex(fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, indexKey(fields))
}

func (s *Store) Get(ctx context.Context, id string) (model.Event, error) {
	if err := ctx.Err(); err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.docs[id]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	return ev.Clone(), nil
}

func (s *Store) Set(ctx context.Context, event model.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[event.EventID]; !exists {
		s.order = append(s.order, event.EventID)
	}
	s.docs[event.EventID] = event.Clone()
	return nil
}

func (s *Store) Update(ctx context.Context, id string, changes map[string]any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	ev = ev.Clone()
	for field, v := range changes {
		if err := ev.Set(field, v); err != nil {
			return fmt.Errorf("%w: %w", docstore.ErrInvalidQuery, err)
		}
	}
	s.docs[id] = ev
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	delete(s.docs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if q.NeedsCompositeIndex() && !s.indexes[indexKey(q.IndexFields())] {
		return nil, fmt.Errorf("%w: (%s)", docstore.ErrIndexNotReady, strings.Join(q.IndexFields(), ", "))
	}

	var out []model.Event
	for _, id := range s.order {
		ev := s.docs[id]
		ok, err := matches(ev, q.Conditions)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ev.Clone())
		}
	}

	if q.OrderField != "" {
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			c, err := compareField(out[i], out[j], q.OrderField)
			if err != nil {
				sortErr = err
			}
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []model.Event{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []model.Event{}
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func matches(ev model.Event, conditions []docstore.Condition) (bool, error) {
	for _, c := range conditions {
		v, present := ev.Value(c.Field)
		if !present {
			return false, nil
		}
		cmp, err := compare(v, c.Value)
		if err != nil {
			return false, fmt.Errorf("%w: field %s: %w", docstore.ErrInvalidQuery, c.Field, err)
		}
		switch c.Op {
		case docstore.OpEq:
			if cmp != 0 {
				return false, nil
			}
		case docstore.OpGte:
			if cmp < 0 {
				return false, nil
			}
		case docstore.OpLte:
			if cmp > 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

func compareField(a, b model.Event, field string) (int, error) {
	av, aok := a.Value(field)
	bv, bok := b.Value(field)
	switch {
	case !aok && !bok:
		return 0, nil
	case !aok:
		return -1, nil
	case !bok:
		return 1, nil
	}
	return compare(av, bv)
}

func compare(a, b any) (int, error) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare string with %T", b)
		}
		return strings.Compare(av, bv), nil
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, fmt.Errorf("cannot compare number with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("cannot compare time with %T", b)
		}
		return av.Compare(bv), nil
	}
	return 0, fmt.Errorf("unsupported value type %T", a)
}

func indexKey(fields []string) string {
	return strings.Join(fields, ",")
}

var (
	_ docstore.Collection       = (*Store)(nil)
	_ docstore.IndexProvisioner = (*Store)(nil)
)
