package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rcliao/temporal-events/internal/docstore"
)

// Postgres driver names accepted by OpenPostgres.
const (
	DriverPGX = "pgx"
	DriverPQ  = "pq"
)

// PostgresConfig selects the connection for OpenPostgres.
type PostgresConfig struct {
	DSN      string
	Driver   string // DriverPGX (default) or DriverPQ
	MaxConns int
}

var postgresFlavor = flavor{
	dialect: "postgres",
	schema: func(table string) []string {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				event_id           TEXT PRIMARY KEY,
				owner_id           TEXT NOT NULL,
				event_text         TEXT NOT NULL,
				event_type         TEXT NOT NULL,
				event_subtype      TEXT,
				parsed_date        TIMESTAMPTZ,
				original_date_text TEXT,
				participants       TEXT,
				location           TEXT,
				importance_score   DOUBLE PRECISION,
				confidence         DOUBLE PRECISION,
				emotional_context  TEXT,
				created_at         TIMESTAMPTZ NOT NULL,
				updated_at         TIMESTAMPTZ NOT NULL
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner ON %s(owner_id)`, table, table),
		}
	},
	catalog: func(d goqu.DialectWrapper, index string) *goqu.SelectDataset {
		return d.From("pg_indexes").
			Select("indexname").
			Where(goqu.C("indexname").Eq(index))
	},
	classify: classifyPostgres,
	encoder:  encoder{},
}

// OpenPostgres connects to PostgreSQL through pgxpool or, with DriverPQ, sqlx over lib/pq.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, options ...Option) (*Store, error) {
	if cfg.MaxConns < 0 || cfg.MaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("max conns out of range: %d", cfg.MaxConns)
	}

	var adapter DBAdapter

	switch cfg.Driver {
	case "", DriverPGX:
		poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = int32(cfg.MaxConns)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
		}
		adapter = NewPGXAdapter(pool)
	case DriverPQ:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
		}
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(cfg.MaxConns)
		}
		adapter = NewSQLXAdapter(db)
	default:
		return nil, fmt.Errorf("unknown postgres driver %q", cfg.Driver)
	}

	s, err := newStore(ctx, adapter, postgresFlavor, options...)
	if err != nil {
		adapter.Close()
		return nil, err
	}
	return s, nil
}

// unavailableClasses are SQLSTATE classes meaning the server cannot serve requests right now:
// connection exception, insufficient resources, operator intervention.
var unavailableClasses = []string{"08", "53", "57"}

func classifyPostgres(err error) error {
	var code string

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	var connErr *pgconn.ConnectError
	switch {
	case errors.As(err, &pgErr):
		code = pgErr.Code
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &connErr), pgconn.Timeout(err):
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}

	for _, class := range unavailableClasses {
		if strings.HasPrefix(code, class) {
			return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
		}
	}
	return err
}
