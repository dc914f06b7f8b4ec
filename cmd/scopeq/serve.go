package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scopeq/internal/audit"
	"github.com/kailas-cloud/scopeq/internal/config"
	"github.com/kailas-cloud/scopeq/internal/db/backend"
	"github.com/kailas-cloud/scopeq/internal/metrics"
	chiTransport "github.com/kailas-cloud/scopeq/internal/transport/chi"
	healthuc "github.com/kailas-cloud/scopeq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/scopeq/internal/usecase/search"
	"github.com/kailas-cloud/scopeq/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the search HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), opts.env, cfg, logger)
		},
	}
}

func serve(ctx context.Context, env string, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting scopeq API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	reg, err := buildCatalog(cfg.Search)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Database, reg)
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := backend.Migrate(ctx, store); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("Schema up to date")
	}

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	var (
		publisher searchuc.Publisher
		checker   healthuc.AuditChecker
	)
	if cfg.Audit.Enabled {
		kp, err := audit.NewKafkaPublisher(audit.Config{
			Brokers:    cfg.Audit.Brokers,
			Topic:      cfg.Audit.Topic,
			MaxRetries: uint64(cfg.Audit.MaxRetries),
		}, logger)
		if err != nil {
			return fmt.Errorf("create audit publisher: %w", err)
		}
		defer func() { _ = kp.Close() }()
		publisher, checker = kp, kp
		logger.Info("Audit publishing enabled", zap.Strings("brokers", cfg.Audit.Brokers), zap.String("topic", cfg.Audit.Topic))
	}

	auth, err := chiTransport.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	searchSvc := searchuc.New(reg, store, publisher, metrics.SearchObserver{})
	defer searchSvc.Drain()
	healthSvc := healthuc.New(store, checker)

	server := chiTransport.NewServer(searchSvc, reg, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, auth),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
