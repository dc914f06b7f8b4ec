// Package backend opens the storage backend selected by driver name.
package backend

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/db/elastic"
	"github.com/kailas-cloud/scopeq/internal/db/redis"
	"github.com/kailas-cloud/scopeq/internal/db/sqlstore"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// Drivers.
const (
	Postgres      = "postgres"
	SQLite        = "sqlite"
	Redis         = "redis"
	Elasticsearch = "elasticsearch"
)

// Config selects and parameterizes a backend.
type Config struct {
	Driver   string
	DSN      string   // postgres, sqlite
	Addrs    []string // redis, elasticsearch
	Username string
	Password string

	// Resources are provisioned by Migrate on index-based backends.
	Resources []resource.Definition
}

// Open creates the store for cfg.Driver. It does not wait for readiness.
func Open(cfg Config) (db.Store, error) {
	switch cfg.Driver {
	case Postgres, SQLite:
		return sqlstore.Open(sqlstore.Config{Dialect: cfg.Driver, DSN: cfg.DSN})
	case Redis:
		return redis.NewStore(redis.Config{
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Resources: cfg.Resources,
		})
	case Elasticsearch:
		return elastic.NewStore(elastic.Config{
			Addresses: cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Resources: cfg.Resources,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Migrate provisions the schema of store when the backend supports it.
func Migrate(ctx context.Context, store db.Store) error {
	m, ok := store.(db.Migrator)
	if !ok {
		return fmt.Errorf("%T does not support migrations", store)
	}
	return m.Migrate(ctx)
}

// Reindex rebuilds the search indexes of store when the backend keeps any.
func Reindex(ctx context.Context, store db.Store) error {
	r, ok := store.(db.Reindexer)
	if !ok {
		return fmt.Errorf("%T has no search indexes to rebuild", store)
	}
	return r.Reindex(ctx)
}
