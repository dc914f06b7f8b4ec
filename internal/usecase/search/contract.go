package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/scopeq/internal/audit"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

// Catalog resolves resource definitions by name.
type Catalog interface {
	Get(name string) (*resource.Definition, error)
}

// Store executes query descriptors.
type Store interface {
	Find(ctx context.Context, q *query.Descriptor) ([]result.Row, error)
	Count(ctx context.Context, q *query.Descriptor) (int, error)
}

// Publisher receives one audit event per finished search.
type Publisher interface {
	Publish(ctx context.Context, ev audit.Event) error
}

// Observer records search outcomes.
type Observer interface {
	ObserveSearch(resource, outcome string, d time.Duration)
	ObserveIgnored(resource, kind string, n int)
}
