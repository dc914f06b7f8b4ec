package main

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/scopeq/internal/catalog"
	"github.com/kailas-cloud/scopeq/internal/config"
	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/db/backend"
)

// buildCatalog applies the configured page policies to the built-in catalog.
func buildCatalog(sc config.SearchConfig) (*catalog.Registry, error) {
	reg := catalog.Default()
	if !sc.Overrides() {
		return reg, nil
	}

	names := reg.Names()
	for name := range sc.Resources {
		if !slices.Contains(names, name) {
			return nil, fmt.Errorf("search.resources.%s: unknown resource", name)
		}
	}

	for _, def := range reg.All() {
		p, err := sc.PolicyFor(def.Name, def.Page)
		if err != nil {
			return nil, fmt.Errorf("search.resources.%s: %w", def.Name, err)
		}
		if reg, err = reg.WithPagePolicy(def.Name, p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// openStore opens the configured backend for the resources of reg.
func openStore(cfg config.DatabaseConfig, reg *catalog.Registry) (db.Store, error) {
	return backend.Open(backend.Config{
		Driver:    cfg.Driver,
		DSN:       cfg.DSN,
		Addrs:     cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Resources: reg.All(),
	})
}
