package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/annexahq/annexa/internal/ai"
	"github.com/annexahq/annexa/internal/api"
	"github.com/annexahq/annexa/internal/auth"
	"github.com/annexahq/annexa/internal/billing"
	"github.com/annexahq/annexa/internal/cache"
	"github.com/annexahq/annexa/internal/config"
	"github.com/annexahq/annexa/internal/crawl"
	"github.com/annexahq/annexa/internal/docgen"
	"github.com/annexahq/annexa/internal/logging"
	"github.com/annexahq/annexa/internal/observability"
	"github.com/annexahq/annexa/internal/radar"
	"github.com/annexahq/annexa/internal/ratelimit"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Annexa HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	return cfg, nil
}

func runServe(cfg *config.Config) error {
	logging.SetLevelFromString(cfg.Server.LogLevel)

	ctx := context.Background()
	if err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: "annexa",
		SampleRate:  cfg.Telemetry.SampleRate,
	}); err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer observability.Shutdown(ctx)

	// The remote binding is decided here, once. Everything downstream gets
	// a single Store and never branches on remote presence.
	var remote cache.Store
	if cfg.Redis.Addr != "" {
		remote = cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logging.Op().Info("remote cache store bound", "addr", cfg.Redis.Addr)
	} else {
		logging.Op().Info("no remote cache configured, running on in-process store only")
	}
	store := cache.NewFallbackStore(remote)
	defer store.Close()

	aiClient := ai.NewClient(cfg.AI)
	if !aiClient.Enabled() {
		logging.Op().Warn("generation provider not configured, AI features disabled")
	}

	fetcher := crawl.NewFetcher(time.Duration(cfg.Crawl.TimeoutSeconds) * time.Second)
	limiter := ratelimit.New(store, cfg.Limits)
	sessions := auth.NewSessions(store)

	server := api.NewServer(
		store,
		limiter,
		sessions,
		docgen.New(store, aiClient, fetcher),
		radar.New(store, aiClient, fetcher),
		billing.New(cfg.Billing, sessions),
		fetcher,
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Op().Info("annexa listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logging.Op().Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
