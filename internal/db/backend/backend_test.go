package backend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/scopeq/internal/db/elastic"
	"github.com/kailas-cloud/scopeq/internal/db/sqlstore"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

func TestOpen_SQL(t *testing.T) {
	for _, driver := range []string{Postgres, SQLite} {
		t.Run(driver, func(t *testing.T) {
			store, err := Open(Config{Driver: driver, DSN: "file:unused"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer store.Close()
			s, ok := store.(*sqlstore.Store)
			if !ok {
				t.Fatalf("expected *sqlstore.Store, got %T", store)
			}
			if s.Dialect().Name != driver {
				t.Errorf("dialect = %q", s.Dialect().Name)
			}
		})
	}
}

func TestOpen_Elasticsearch(t *testing.T) {
	store, err := Open(Config{Driver: Elasticsearch, Addrs: []string{"http://localhost:9200"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*elastic.Store); !ok {
		t.Errorf("expected *elastic.Store, got %T", store)
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"unknown driver", Config{Driver: "valkey"}, "unknown database driver"},
		{"sql without dsn", Config{Driver: Postgres}, "dsn"},
		{"redis without addrs", Config{Driver: Redis}, "addrs"},
		{"es without addrs", Config{Driver: Elasticsearch}, "addresses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

type plainStore struct{}

func (plainStore) Ping(context.Context) error { return nil }
func (plainStore) Find(context.Context, *query.Descriptor) ([]result.Row, error) {
	return nil, nil
}
func (plainStore) Count(context.Context, *query.Descriptor) (int, error) { return 0, nil }
func (plainStore) Close() {}
func (plainStore) WaitForReady(context.Context, time.Duration) error { return nil }

func TestMigrate_Unsupported(t *testing.T) {
	if err := Migrate(context.Background(), plainStore{}); err == nil {
		t.Error("expected error for store without migrations")
	}
}

func TestReindex_Unsupported(t *testing.T) {
	store, err := Open(Config{Driver: SQLite, DSN: "file:unused"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()
	if err := Reindex(context.Background(), store); err == nil {
		t.Error("expected error for a SQL store")
	}
}
