package scopeq

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/request"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

// --- db.Store mock ---

type mockStore struct {
	mu      sync.Mutex
	rows    []result.Row
	total   int
	findErr error
	pingErr error
	closed  bool
	queries []*query.Descriptor
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockStore) WaitForReady(context.Context, time.Duration) error { return nil }

func (m *mockStore) Find(_ context.Context, q *query.Descriptor) ([]result.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.rows, nil
}

func (m *mockStore) Count(context.Context, *query.Descriptor) (int, error) {
	return m.total, nil
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, p principal.Principal, resource string, req request.Request) (result.Response, error)
	drained  bool
}

func (m *mockSearchUC) Search(
	ctx context.Context, p principal.Principal, resource string, req request.Request,
) (result.Response, error) {
	return m.searchFn(ctx, p, resource, req)
}

func (m *mockSearchUC) Drain() { m.drained = true }

// --- AuditPublisher mock ---

type mockPublisher struct {
	mu        sync.Mutex
	events    []AuditEvent
	healthErr error
}

func (m *mockPublisher) Publish(_ context.Context, ev AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) HealthCheck(context.Context) error { return m.healthErr }

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
