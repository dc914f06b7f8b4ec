package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

// Compile-time checks.
var (
	_ db.Store    = (*Store)(nil)
	_ db.Migrator = (*Store)(nil)
)

// Config holds connection parameters for a SQL store.
type Config struct {
	Dialect      string // postgres, sqlite
	DSN          string
	MaxOpenConns int
}

// Store implements db.Store over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens a connection pool. It does not ping; use WaitForReady.
func Open(cfg Config) (*Store, error) {
	d, err := DialectFor(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	conn, err := sql.Open(d.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if d.Name == SQLite.Name {
		maxOpen = min(maxOpen, 4)
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(min(maxOpen, 5))
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: conn, dialect: d}, nil
}

// NewStoreForTest wraps an existing *sql.DB (test-only).
func NewStoreForTest(conn *sql.DB, d Dialect) *Store {
	return &Store{db: conn, dialect: d}
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady retries Ping with exponential backoff until timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = timeout

	if err := backoff.Retry(func() error { return s.Ping(ctx) }, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("timeout waiting for database: %w", err)
	}
	return nil
}

// Find returns the page of rows q describes.
func (s *Store) Find(ctx context.Context, q *query.Descriptor) ([]result.Row, error) {
	stmt, args, err := renderFind(s.dialect, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	return out, nil
}

// Count returns the number of rows matching q's predicate.
func (s *Store) Count(ctx context.Context, q *query.Descriptor) (int, error) {
	stmt, args, err := renderCount(s.dialect, q)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return int(total), nil
}

// scanRows reads every row into a column-keyed map.
func scanRows(rows *sql.Rows) ([]result.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	out := make([]result.Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(result.Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}
