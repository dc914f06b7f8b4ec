package scopeq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/search/request"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
)

const (
	testTenant = "0b7c3f5e-2a41-4d8e-9c61-3f0a7e5d1b22"
	testUser   = "5d2e8a10-7c3b-4f9e-a1d4-6b8c0e2f4a91"
	testTaskID = "c4a1e9d2-5b7f-4e3a-8d60-1f2b3c4d5e6f"
)

func newTestClient(t *testing.T, store db.Store, opts ...Option) *Client {
	t.Helper()
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	cat, err := buildCatalog(cfg)
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	return wireClient(store, cat, cfg, obs)
}

func member(t *testing.T) Principal {
	t.Helper()
	p, err := NewPrincipal(testUser, RoleUser, "", testTenant)
	if err != nil {
		t.Fatalf("NewPrincipal: %v", err)
	}
	return p
}

func taskRows() []result.Row {
	return []result.Row{{
		"id":         testTaskID,
		"tenant_id":  testTenant,
		"title":      "Write docs",
		"status":     "todo",
		"priority":   int64(2),
		"internal":   "never projected",
		"created_at": "2024-03-01T10:00:00Z",
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_NoDatabase(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no database configured")
	}
}

func TestNew_PagePolicyForUnknownResource(t *testing.T) {
	p, err := NewPagePolicy(5, 10, OverflowClamp)
	if err != nil {
		t.Fatalf("NewPagePolicy: %v", err)
	}
	_, err = New(context.Background(), WithSQLite(":memory:"), WithPagePolicy("invoices", p))
	if !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "mongodb", addrs: []string{"localhost:27017"}}
	if _, err := createStore(cfg, BuiltinCatalog()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOptions_LastBackendWins(t *testing.T) {
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithRedis("localhost:6379", "secret"),
		WithPostgres("postgres://localhost/scopeq"),
	} {
		o.apply(cfg)
	}
	if cfg.driver != "postgres" || cfg.dsn != "postgres://localhost/scopeq" {
		t.Errorf("driver/dsn = %q/%q", cfg.driver, cfg.dsn)
	}
	if cfg.addrs != nil {
		t.Errorf("addrs = %v, want nil", cfg.addrs)
	}

	WithElasticsearch("http://es1:9200", "http://es2:9200").apply(cfg)
	if cfg.driver != "elasticsearch" || len(cfg.addrs) != 2 || cfg.dsn != "" {
		t.Errorf("unexpected config after WithElasticsearch: %+v", cfg)
	}
}

func TestClient_Search(t *testing.T) {
	store := &mockStore{rows: taskRows(), total: 41}
	c := newTestClient(t, store, WithLogger(discardLogger()))

	resp, err := c.Search(context.Background(), member(t), "tasks", map[string]any{
		"page":   3,
		"status": "todo",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Pagination.Current != 3 || resp.Pagination.Limit != 20 {
		t.Errorf("window = %d/%d, want 3/20", resp.Pagination.Current, resp.Pagination.Limit)
	}
	if resp.Pagination.Records != 41 || resp.Pagination.Pages != 3 {
		t.Errorf("records/pages = %d/%d, want 41/3", resp.Pagination.Records, resp.Pagination.Pages)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(resp.Data))
	}
	if title, _ := resp.Data[0].Get("title"); title != "Write docs" {
		t.Errorf("title = %v", title)
	}
	if _, ok := resp.Data[0].Get("internal"); ok {
		t.Error("undeclared column leaked into summary")
	}

	if len(store.queries) != 1 {
		t.Fatalf("expected 1 find, got %d", len(store.queries))
	}
	if q := store.queries[0]; q.Skip() != 40 || q.Take() != 20 {
		t.Errorf("skip/take = %d/%d, want 40/20", q.Skip(), q.Take())
	}
}

func TestClient_Search_PagePolicyOverride(t *testing.T) {
	policy, err := NewPagePolicy(5, 10, OverflowReject)
	if err != nil {
		t.Fatalf("NewPagePolicy: %v", err)
	}
	store := &mockStore{}
	c := newTestClient(t, store, WithPagePolicy("tasks", policy))

	resp, err := c.Search(context.Background(), member(t), "tasks", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Pagination.Limit != 5 {
		t.Errorf("limit = %d, want 5", resp.Pagination.Limit)
	}

	_, err = c.Search(context.Background(), member(t), "tasks", map[string]any{"limit": 11})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "limit" {
		t.Fatalf("expected limit ValidationError, got %v", err)
	}
}

func TestClient_Search_Errors(t *testing.T) {
	noTenant, err := NewPrincipal(testUser, RoleUser, "", "")
	if err != nil {
		t.Fatalf("NewPrincipal: %v", err)
	}

	tests := []struct {
		name     string
		p        Principal
		resource string
		params   map[string]any
		findErr  error
		want     error
	}{
		{"unknown resource", member(t), "invoices", nil, nil, ErrUnknownResource},
		{"anonymous", Principal{}, "tasks", nil, nil, ErrUnauthenticated},
		{"role not allowed", member(t), "patients", nil, nil, ErrAuthorization},
		{"missing tenant", noTenant, "tasks", nil, nil, ErrScope},
		{"bad page", member(t), "tasks", map[string]any{"page": "two"}, nil, ErrValidation},
		{"bad enum", member(t), "tasks", map[string]any{"status": "archived"}, nil, ErrValidation},
		{"storage", member(t), "tasks", nil, errors.New("connection reset"), ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &mockStore{findErr: tt.findErr})
			_, err := c.Search(context.Background(), tt.p, tt.resource, tt.params)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClient_Search_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, &mockStore{rows: taskRows(), total: 1}, WithPrometheus(reg))

	_, err := c.Search(context.Background(), member(t), "tasks", map[string]any{"colour": "red"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = c.Search(context.Background(), member(t), "invoices", nil)

	m := c.obs.metrics
	if got := testutil.ToFloat64(m.operations.WithLabelValues("search", "ok")); got != 1 {
		t.Errorf("search ok operations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("search error operations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.searches.WithLabelValues("tasks", "ok")); got != 1 {
		t.Errorf("tasks ok searches = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ignored.WithLabelValues("tasks", "undeclared")); got != 1 {
		t.Errorf("ignored params = %v, want 1", got)
	}
}

func TestClient_Audit(t *testing.T) {
	pub := &mockPublisher{}
	store := &mockStore{rows: taskRows(), total: 1}
	c := newTestClient(t, store, WithAudit(pub))

	if _, err := c.Search(context.Background(), member(t), "tasks", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Close()

	if pub.count() != 1 {
		t.Fatalf("expected 1 audit event, got %d", pub.count())
	}
	if !store.closed {
		t.Error("store was not closed")
	}
}

func TestClient_CloseDrainsSearches(t *testing.T) {
	store := &mockStore{}
	uc := &mockSearchUC{}
	c := &Client{store: store, searchSvc: uc}

	c.Close()

	if !uc.drained {
		t.Error("searches were not drained")
	}
	if !store.closed {
		t.Error("store was not closed")
	}
}

func TestClient_Search_WrapsUseCaseError(t *testing.T) {
	var got request.Request
	uc := &mockSearchUC{
		searchFn: func(_ context.Context, _ principal.Principal, _ string, req request.Request) (result.Response, error) {
			got = req
			return result.Response{}, ErrStorage
		},
	}
	c := &Client{searchSvc: uc}

	_, err := c.Search(context.Background(), member(t), "tasks", map[string]any{
		"sort":    "title",
		"order":   "asc",
		"filters": map[string]any{"status": "done"},
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if got.Sort() != "title" || got.Direction() != "asc" {
		t.Errorf("sort = %q %q", got.Sort(), got.Direction())
	}
	if got.Filters()["status"] != "done" {
		t.Errorf("filters = %v", got.Filters())
	}
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, &mockStore{})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = newTestClient(t, &mockStore{pingErr: errors.New("refused")})
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestClient_Health(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		audit   AuditPublisher
		status  string
		serving bool
		checks  int
	}{
		{"healthy", nil, nil, "ok", true, 1},
		{"audit down", nil, &mockPublisher{healthErr: errors.New("no brokers")}, "degraded", true, 2},
		{"database down", errors.New("refused"), &mockPublisher{}, "error", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.audit != nil {
				opts = append(opts, WithAudit(tt.audit))
			}
			c := newTestClient(t, &mockStore{pingErr: tt.pingErr}, opts...)

			h := c.Health(context.Background())
			if h.Status != tt.status {
				t.Errorf("status = %q, want %q", h.Status, tt.status)
			}
			if h.Serving() != tt.serving {
				t.Errorf("Serving() = %v, want %v", h.Serving(), tt.serving)
			}
			if len(h.Checks) != tt.checks {
				t.Errorf("checks = %v", h.Checks)
			}
		})
	}
}

func TestClient_Resources(t *testing.T) {
	c := newTestClient(t, &mockStore{})

	names := make(map[string]bool)
	for _, r := range c.Resources(member(t)) {
		names[r.Name] = true
	}
	if !names["tasks"] {
		t.Error("users must see tasks")
	}
	if names["patients"] || names["oauth_clients"] {
		t.Errorf("users must not see restricted resources: %v", names)
	}
}

func TestNewObserver_ReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if first.metrics.searches != second.metrics.searches {
		t.Error("expected the registered collector to be reused")
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.ObserveSearch("tasks", "ok", 0)
	o.ObserveIgnored("tasks", "undeclared", 1)
	o.observe("search", time.Now(), nil)
}
