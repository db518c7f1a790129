package docstore

import (
	"fmt"
	"strings"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Condition filters documents on a single field.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Query describes a filtered, optionally ordered and paginated read.
// The zero value matches every document.
type Query struct {
	Conditions []Condition
	OrderField string
	Descending bool
	Limit      int
	Offset     int
}

// NewQuery starts an empty query.
func NewQuery() Query {
	return Query{}
}

// Where adds a condition.
func (q Query) Where(field string, op Op, value any) Query {
	q.Conditions = append(append([]Condition(nil), q.Conditions...), Condition{Field: field, Op: op, Value: value})
	return q
}

// OrderBy orders results by field.
func (q Query) OrderBy(field string, descending bool) Query {
	q.OrderField = field
	q.Descending = descending
	return q
}

// WithLimit bounds the number of results. Zero means unbounded.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// WithOffset skips the first n results.
func (q Query) WithOffset(n int) Query {
	q.Offset = n
	return q
}

// Validate rejects queries no collection can serve.
func (q Query) Validate() error {
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}
	if q.Offset > 0 && q.Limit == 0 {
		return fmt.Errorf("%w: offset requires a limit", ErrInvalidQuery)
	}
	for _, c := range q.Conditions {
		switch c.Op {
		case OpEq, OpGte, OpLte:
		default:
			return fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, c.Op)
		}
		if c.Field == "" {
			return fmt.Errorf("%w: empty field", ErrInvalidQuery)
		}
	}
	return nil
}

// NeedsCompositeIndex reports whether the query orders by one field while filtering on another.
func (q Query) NeedsCompositeIndex() bool {
	if q.OrderField == "" {
		return false
	}
	for _, c := range q.Conditions {
		if c.Field != q.OrderField {
			return true
		}
	}
	return false
}

// IndexFields returns the fields a composite index must cover: equality fields first,
// then range fields, then the order field, without duplicates.
func (q Query) IndexFields() []string {
	var fields []string
	add := func(f string) {
		for _, existing := range fields {
			if existing == f {
				return
			}
		}
		fields = append(fields, f)
	}
	for _, c := range q.Conditions {
		if c.Op == OpEq {
			add(c.Field)
		}
	}
	for _, c := range q.Conditions {
		if c.Op != OpEq {
			add(c.Field)
		}
	}
	if q.OrderField != "" {
		add(q.OrderField)
	}
	return fields
}

// IndexName derives the conventional name of a composite index on collection.
func IndexName(collection string, fields ...string) string {
	return "idx_" + collection + "__" + strings.Join(fields, "__")
}
