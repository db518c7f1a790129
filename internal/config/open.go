package config

import (
	"context"
	"fmt"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/docstore/firestorestore"
	"github.com/rcliao/temporal-events/internal/docstore/memstore"
	"github.com/rcliao/temporal-events/internal/docstore/sqlstore"
	"github.com/rcliao/temporal-events/internal/store"
)

// OpenCollection connects the configured backend.
func (c Config) OpenCollection(ctx context.Context, logger store.Logger) (docstore.Collection, error) {
	sqlOpts := []sqlstore.Option{
		sqlstore.WithTable(c.Collection),
		sqlstore.WithIndexEnforcement(c.Indexes.Enforce),
	}
	if logger != nil {
		sqlOpts = append(sqlOpts, sqlstore.WithLogger(logger))
	}

	switch c.Backend {
	case BackendMemory:
		return memstore.New(), nil
	case BackendSQLite:
		return sqlstore.OpenSQLite(ctx, c.SQLite.Path, sqlOpts...)
	case BackendPostgres:
		return sqlstore.OpenPostgres(ctx, sqlstore.PostgresConfig{
			DSN:      c.Postgres.DSN,
			Driver:   c.Postgres.Driver,
			MaxConns: c.Postgres.MaxConns,
		}, sqlOpts...)
	case BackendFirestore:
		return firestorestore.Open(ctx, firestorestore.Config{
			ProjectID:       c.Firestore.ProjectID,
			CredentialsFile: c.Firestore.CredentialsFile,
			Collection:      c.Collection,
		})
	}
	return nil, fmt.Errorf("unknown backend %q", c.Backend)
}

// OpenStore opens the collection and wraps it in the event store facade,
// provisioning the listing indexes when configured. logger may be nil.
func (c Config) OpenStore(ctx context.Context, logger store.Logger, options ...store.Option) (*store.Store, error) {
	coll, err := c.OpenCollection(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", c.Backend, err)
	}

	opts := []store.Option{
		store.WithLogger(logger),
		store.WithFallbackFetchSize(c.Listing.FallbackFetchSize),
	}
	s, err := store.New(coll, append(opts, options...)...)
	if err != nil {
		coll.Close()
		return nil, err
	}

	if c.Indexes.Provision {
		if err := s.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("provision indexes: %w", err)
		}
	}
	return s, nil
}
