// Package elastic implements db.Store over Elasticsearch 8, one index per resource.
package elastic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// Compile-time checks.
var (
	_ db.Store    = (*Store)(nil)
	_ db.Migrator = (*Store)(nil)
)

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Transport http.RoundTripper

	// Resources are the definitions Migrate creates indices for.
	Resources []resource.Definition
}

// Store implements db.Store via the official Elasticsearch client.
type Store struct {
	client    *elasticsearch.Client
	resources []resource.Definition
}

// NewStore creates an Elasticsearch store. It does not contact the cluster.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses are required")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, resources: cfg.Resources}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError(db.OpPing, res)
	}
	return nil
}

// Close is a no-op; the client holds no long-lived resources beyond its transport.
func (s *Store) Close() {}

// WaitForReady retries Ping with exponential backoff until timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = timeout

	if err := backoff.Retry(func() error { return s.Ping(ctx) }, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("timeout waiting for elasticsearch: %w", err)
	}
	return nil
}

// responseError drains an error response into a db.Error.
func responseError(op string, res *esapi.Response) error {
	var body strings.Builder
	if res.Body != nil {
		_, _ = io.Copy(&body, io.LimitReader(res.Body, 4096))
	}
	if body.Len() > 0 {
		return &db.Error{Op: op, Err: fmt.Errorf("status %s: %s", res.Status(), body.String())}
	}
	return &db.Error{Op: op, Err: fmt.Errorf("status %s", res.Status())}
}
