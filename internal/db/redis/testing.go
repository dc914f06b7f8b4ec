package redis

import (
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// NewStoreForTest wraps an existing rueidis.Client (test-only).
func NewStoreForTest(c rueidis.Client, defs ...resource.Definition) *Store {
	return &Store{client: c, resources: defs}
}
