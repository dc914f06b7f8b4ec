package scopeq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/db/backend"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/search/request"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/scopeq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/scopeq/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type searchUseCase interface {
	Search(ctx context.Context, p principal.Principal, resource string, req request.Request) (result.Response, error)
	Drain()
}

// Client is the scopeq SDK entry point.
type Client struct {
	store     db.Store
	catalog   *Catalog
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a scopeq Client and connects to the database.
// The provided context is used for the readiness check and migrations.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("scopeq: database required (use WithPostgres, WithSQLite, WithRedis or WithElasticsearch)")
	}

	cat, err := buildCatalog(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg, cat)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("scopeq: database not ready: %w", err)
	}

	if cfg.autoMigrate {
		if err := backend.Migrate(ctx, store); err != nil {
			store.Close()
			return nil, fmt.Errorf("scopeq: migrate: %w", err)
		}
	}

	return wireClient(store, cat, cfg, obs), nil
}

func buildCatalog(cfg *clientConfig) (*Catalog, error) {
	cat := cfg.catalog
	if cat == nil {
		cat = BuiltinCatalog()
	}
	for name, p := range cfg.policies {
		next, err := cat.WithPagePolicy(name, p)
		if err != nil {
			return nil, fmt.Errorf("scopeq: page policy: %w", err)
		}
		cat = next
	}
	return cat, nil
}

func createStore(cfg *clientConfig, cat *Catalog) (db.Store, error) {
	s, err := backend.Open(backend.Config{
		Driver:    cfg.driver,
		DSN:       cfg.dsn,
		Addrs:     cfg.addrs,
		Username:  cfg.username,
		Password:  cfg.password,
		Resources: cat.All(),
	})
	if err != nil {
		return nil, fmt.Errorf("scopeq: create %s store: %w", cfg.driver, err)
	}
	return s, nil
}

func wireClient(store db.Store, cat *Catalog, cfg *clientConfig, obs *observer) *Client {
	var pub searchuc.Publisher
	if cfg.audit != nil {
		pub = cfg.audit
	}
	return &Client{
		store:     store,
		catalog:   cat,
		searchSvc: searchuc.New(cat, store, pub, obs),
		healthSvc: healthuc.New(store, auditChecker(cfg.audit)),
		obs:       obs,
	}
}

// Close waits for pending audit events and releases all resources.
func (c *Client) Close() {
	if c.searchSvc != nil {
		c.searchSvc.Drain()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs one search against resource on behalf of p.
//
// params uses the HTTP body shape: page, limit, sort and sortDirection
// configure the window and ordering, every other key (and every key of a
// nested "filters" map) is a filter parameter. Undeclared parameters are
// ignored. Errors match ErrValidation, ErrScope, ErrAuthorization and the
// other sentinels of this package via errors.Is.
func (c *Client) Search(
	ctx context.Context, p Principal, resource string, params map[string]any,
) (resp Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	req, err := request.Parse(params)
	if err != nil {
		return Response{}, fmt.Errorf("search %s: %w", resource, err)
	}
	resp, err = c.searchSvc.Search(ctx, p, resource, req)
	if err != nil {
		return Response{}, fmt.Errorf("search %s: %w", resource, err)
	}
	return resp, nil
}

// Resources returns the resources p's role may search, in catalog order.
func (c *Client) Resources(p Principal) []Resource {
	return c.catalog.Visible(p.Role())
}
