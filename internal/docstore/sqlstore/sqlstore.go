// Package sqlstore implements docstore.Collection on a single relational table,
// for SQLite (modernc, pure Go) and PostgreSQL (pgx or lib/pq).
//
// SQL is built with goqu. With index enforcement on, ordered queries that filter on
// another field are refused with docstore.ErrIndexNotReady until the matching composite
// index exists in the database catalog, which mirrors how hosted document stores behave.
package sqlstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

const (
	// DefaultTable is the table name used when none is configured.
	DefaultTable = "events_temporal_features"

	logMsgSQLExecuted   = "executed sql"
	logMsgCloseRows     = "failed to close database rows"
	logMsgIndexRefused  = "query refused, composite index missing"
	logAttrQuery        = "query"
	logAttrDurationMS   = "duration_ms"
	logAttrError        = "error"
	logAttrIndex        = "index"
	logAttrOperation    = "operation"
	excludedTablePrefix = "excluded."
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Logger is the structured logger the store reports to. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// flavor holds what differs between SQL engines.
type flavor struct {
	dialect  string
	schema   func(table string) []string
	catalog  func(d goqu.DialectWrapper, index string) *goqu.SelectDataset
	classify func(error) error
	encoder  encoder
}

// Store is a docstore.Collection backed by one SQL table.
type Store struct {
	db      DBAdapter
	flavor  flavor
	dialect goqu.DialectWrapper
	table   string
	enforce bool
	logger  Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithTable sets the table name.
func WithTable(name string) Option {
	return func(s *Store) error {
		if !tableNamePattern.MatchString(name) {
			return fmt.Errorf("invalid table name %q", name)
		}
		s.table = name
		return nil
	}
}

// WithIndexEnforcement makes ordered, filtered queries require a matching composite index.
func WithIndexEnforcement(enforce bool) Option {
	return func(s *Store) error {
		s.enforce = enforce
		return nil
	}
}

// WithLogger sets the logger. SQL statements are logged at debug level.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

func newStore(ctx context.Context, db DBAdapter, f flavor, options ...Option) (*Store, error) {
	s := &Store{
		db:      db,
		flavor:  f,
		dialect: goqu.Dialect(f.dialect),
		table:   DefaultTable,
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.flavor.schema(s.table) {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return s.classify(err)
		}
	}
	return nil
}

// Table returns the backing table name.
func (s *Store) Table() string {
	return s.table
}

func (s *Store) Get(ctx context.Context, id string) (model.Event, error) {
	ds := s.dialect.From(s.table).
		Select(columns...).
		Where(goqu.C(model.FieldEventID).Eq(id)).
		Limit(1)

	events, err := s.selectEvents(ctx, ds)
	if err != nil {
		return model.Event{}, err
	}
	if len(events) == 0 {
		return model.Event{}, fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	return events[0], nil
}

func (s *Store) Set(ctx context.Context, event model.Event) error {
	rec, err := s.flavor.encoder.record(event)
	if err != nil {
		return err
	}

	onConflict := goqu.Record{}
	for field := range rec {
		if field != model.FieldEventID {
			onConflict[field] = goqu.L(excludedTablePrefix + field)
		}
	}

	ds := s.dialect.Insert(s.table).
		Rows(goqu.Record(rec)).
		OnConflict(goqu.DoUpdate(model.FieldEventID, onConflict))

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = s.exec(ctx, "set", query, args)
	return err
}

func (s *Store) Update(ctx context.Context, id string, changes map[string]any) error {
	if len(changes) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}

	rec := goqu.Record{}
	for field, v := range changes {
		if field == model.FieldEventID || field == model.FieldOwnerID {
			return fmt.Errorf("%w: field %s is immutable", docstore.ErrInvalidQuery, field)
		}
		if !filterable[field] && field != model.FieldParticipants {
			return fmt.Errorf("%w: unknown field %q", docstore.ErrInvalidQuery, field)
		}
		encoded, err := s.flavor.encoder.value(field, v)
		if err != nil {
			return err
		}
		rec[field] = encoded
	}

	ds := s.dialect.Update(s.table).
		Set(rec).
		Where(goqu.C(model.FieldEventID).Eq(id))

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	return s.execOne(ctx, "update", id, query, args)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	ds := s.dialect.Delete(s.table).Where(goqu.C(model.FieldEventID).Eq(id))

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	return s.execOne(ctx, "delete", id, query, args)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]model.Event, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if s.enforce && q.NeedsCompositeIndex() {
		name := docstore.IndexName(s.table, q.IndexFields()...)
		ok, err := s.indexExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logWarn(logMsgIndexRefused, logAttrIndex, name)
			return nil, fmt.Errorf("%w: %s", docstore.ErrIndexNotReady, name)
		}
	}

	ds := s.dialect.From(s.table).Select(columns...)

	for _, c := range q.Conditions {
		if !filterable[c.Field] {
			return nil, fmt.Errorf("%w: cannot filter on %q", docstore.ErrInvalidQuery, c.Field)
		}
		v, err := s.flavor.encoder.value(c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		col := goqu.C(c.Field)
		switch c.Op {
		case docstore.OpEq:
			ds = ds.Where(col.Eq(v))
		case docstore.OpGte:
			ds = ds.Where(col.Gte(v))
		case docstore.OpLte:
			ds = ds.Where(col.Lte(v))
		}
	}

	if q.OrderField != "" {
		if !filterable[q.OrderField] {
			return nil, fmt.Errorf("%w: cannot order by %q", docstore.ErrInvalidQuery, q.OrderField)
		}
		ds = ds.Order(orderExp(q.OrderField, q.Descending), orderExp(model.FieldEventID, q.Descending))
	}
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}

	return s.selectEvents(ctx, ds)
}

// EnsureIndex creates the composite index named by docstore.IndexName.
func (s *Store) EnsureIndex(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: index needs at least one field", docstore.ErrInvalidQuery)
	}
	for _, f := range fields {
		if !filterable[f] {
			return fmt.Errorf("%w: cannot index %q", docstore.ErrInvalidQuery, f)
		}
	}
	stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		docstore.IndexName(s.table, fields...), s.table, strings.Join(fields, ", "))
	_, err := s.exec(ctx, "ensure_index", stmt, nil)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) indexExists(ctx context.Context, name string) (bool, error) {
	query, args, err := s.flavor.catalog(s.dialect, name).Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build catalog query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return false, s.classify(err)
	}
	defer s.closeRows(rows)

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, s.classify(err)
	}
	return found, nil
}

func (s *Store) selectEvents(ctx context.Context, ds *goqu.SelectDataset) ([]model.Event, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	start := time.Now()
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, s.classify(err)
	}
	defer s.closeRows(rows)

	events := []model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err)
	}
	s.logDebug(query, "select", start)
	return events, nil
}

func (s *Store) exec(ctx context.Context, op, query string, args []any) (DBResult, error) {
	start := time.Now()
	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return nil, s.classify(err)
	}
	s.logDebug(query, op, start)
	return res, nil
}

// execOne runs a statement addressed to one document and maps zero affected rows to ErrNotFound.
func (s *Store) execOne(ctx context.Context, op, id, query string, args []any) error {
	res, err := s.exec(ctx, op, query, args)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", docstore.ErrNotFound, id)
	}
	return nil
}

// classify maps driver errors onto docstore sentinels. Unrecognized errors pass through.
func (s *Store) classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}
	return s.flavor.classify(err)
}

func (s *Store) closeRows(rows DBRows) {
	if err := rows.Close(); err != nil {
		s.logError(logMsgCloseRows, logAttrError, err.Error())
	}
}

func (s *Store) logDebug(query, op string, start time.Time) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(logMsgSQLExecuted,
		logAttrOperation, op,
		logAttrQuery, query,
		logAttrDurationMS, time.Since(start).Milliseconds())
}

func (s *Store) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Store) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

func orderExp(field string, desc bool) exp.OrderedExpression {
	if desc {
		return goqu.I(field).Desc()
	}
	return goqu.I(field).Asc()
}

var (
	_ docstore.Collection       = (*Store)(nil)
	_ docstore.IndexProvisioner = (*Store)(nil)
)
