package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

// Store is the database facade every backend implements.
type Store interface {
	Pinger
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher executes search descriptors.
// Find and Count must derive their predicate from the same descriptor only.
type Searcher interface {
	Find(ctx context.Context, q *query.Descriptor) ([]result.Row, error)
	Count(ctx context.Context, q *query.Descriptor) (int, error)
}

// Migrator provisions the schema of a backend.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Reindexer drops and rebuilds the search indexes of a backend.
type Reindexer interface {
	Reindex(ctx context.Context) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}
