package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scopeq/internal/db/backend"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var reindex bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Provision the schema or indexes of the built-in resources",
		Long: "Applies pending SQL migrations (postgres, sqlite) or creates the search\n" +
			"indexes of every catalog resource (redis, elasticsearch).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			reg, err := buildCatalog(cfg.Search)
			if err != nil {
				return err
			}
			store, err := openStore(cfg.Database, reg)
			if err != nil {
				return fmt.Errorf("create database store: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
				return fmt.Errorf("database not ready: %w", err)
			}
			if reindex {
				if err := backend.Reindex(ctx, store); err != nil {
					return fmt.Errorf("reindex: %w", err)
				}
			} else if err := backend.Migrate(ctx, store); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			logger.Info("Migration complete",
				zap.String("db_driver", cfg.Database.Driver),
				zap.Strings("resources", reg.Names()),
				zap.Bool("reindex", reindex),
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reindex, "reindex", false, "drop and rebuild the redis search indexes")
	return cmd
}
