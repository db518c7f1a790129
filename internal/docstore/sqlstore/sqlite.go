package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rcliao/temporal-events/internal/docstore"
)

const sqlitePragmas = "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"

var sqliteFlavor = flavor{
	dialect: "sqlite3",
	schema: func(table string) []string {
		return []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				event_id           TEXT PRIMARY KEY,
				owner_id           TEXT NOT NULL,
				event_text         TEXT NOT NULL,
				event_type         TEXT NOT NULL,
				event_subtype      TEXT,
				parsed_date        TEXT,
				original_date_text TEXT,
				participants       TEXT,
				location           TEXT,
				importance_score   REAL,
				confidence         REAL,
				emotional_context  TEXT,
				created_at         TEXT NOT NULL,
				updated_at         TEXT NOT NULL
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner ON %s(owner_id)`, table, table),
		}
	},
	catalog: func(d goqu.DialectWrapper, index string) *goqu.SelectDataset {
		return d.From("sqlite_master").
			Select("name").
			Where(goqu.C("type").Eq("index"), goqu.C("name").Eq(index))
	},
	classify: classifySQLite,
	encoder:  encoder{textTimes: true},
}

// OpenSQLite opens or creates a SQLite database at path.
func OpenSQLite(ctx context.Context, path string, options ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", path+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s, err := newStore(ctx, NewSQLXAdapter(db), sqliteFlavor, options...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func classifySQLite(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
			return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
		}
	}
	return err
}
