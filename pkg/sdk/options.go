package scopeq

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "postgres", "sqlite", "redis" or "elasticsearch"
	dsn      string
	addrs    []string
	username string
	password string

	autoMigrate bool

	catalog  *Catalog
	policies map[string]PagePolicy
	audit    AuditPublisher

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres configures the client to read from a PostgreSQL database.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
		c.addrs = nil
	})
}

// WithSQLite configures the client to read from a SQLite database file.
// Use ":memory:" for a throwaway database.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.dsn = path
		c.addrs = nil
	})
}

// WithRedis configures the client to search RediSearch indexes.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.dsn = ""
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithElasticsearch configures the client to search Elasticsearch indices.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "elasticsearch"
		c.dsn = ""
		c.addrs = addrs
	})
}

// WithBasicAuth sets credentials for Redis ACL users or Elasticsearch.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithAutoMigrate provisions tables or indexes for the catalog on New.
func WithAutoMigrate() Option {
	return optionFunc(func(c *clientConfig) {
		c.autoMigrate = true
	})
}

// WithCatalog replaces the built-in resource catalog.
func WithCatalog(cat *Catalog) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalog = cat
	})
}

// WithPagePolicy overrides the page size rules of one resource.
// New fails if the resource is not in the catalog.
func WithPagePolicy(resource string, p PagePolicy) Option {
	return optionFunc(func(c *clientConfig) {
		if c.policies == nil {
			c.policies = make(map[string]PagePolicy)
		}
		c.policies[resource] = p
	})
}

// WithAudit sends one event per authenticated search to p.
// Events are published in the background; Close waits for them.
func WithAudit(p AuditPublisher) Option {
	return optionFunc(func(c *clientConfig) {
		c.audit = p
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// search outcomes) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
