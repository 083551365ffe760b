// bridged subscribes to the Binance market and user data streams and
// publishes every event as a snapshot file under the cache directory.
// Usage: go run ./cmd/bridged --config configs/bridge.local.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hzhou/snapbridge/internal/api"
	"github.com/hzhou/snapbridge/internal/config"
	"github.com/hzhou/snapbridge/internal/feed"
	"github.com/hzhou/snapbridge/internal/processor"
	"github.com/hzhou/snapbridge/internal/retention"
	"github.com/hzhou/snapbridge/internal/snapshot"
	"github.com/hzhou/snapbridge/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/bridge.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting bridged",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"cache_dir", cfg.Cache.Dir,
		"api_url", cfg.API.RestURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Prepare the snapshot cache
	store := snapshot.NewStore(cfg.Cache.Dir, logger)
	if err := store.EnsureDirs(); err != nil {
		logger.Error("failed to prepare cache directory", "error", err)
		os.Exit(1)
	}
	logger.Info("cache directory ready", "dir", store.Root())

	// Create API client
	apiClient := api.NewClient(
		cfg.API.RestURL,
		cfg.API.APIKey,
		cfg.API.SecretKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithRecvWindow(cfg.API.RecvWindow.Milliseconds()),
	)

	// Event processor writes snapshots and purges channels on feed gaps
	proc := processor.New(store, logger)

	// Feed manager supervises the market and user stream subscriptions
	mgr := feed.NewManager(feed.ManagerConfig{
		WSURL:                cfg.API.WSURL,
		ReconnectBaseWait:    cfg.Feed.ReconnectBaseWait,
		ReconnectMaxWait:     cfg.Feed.ReconnectMaxWait,
		MaxReconnectAttempts: cfg.Feed.MaxReconnectAttempts,
		ListenKeyInterval:    cfg.Feed.ListenKeyInterval,
		PingTimeout:          cfg.Feed.PingTimeout,
		WriteTimeout:         cfg.Feed.WriteTimeout,
		BufferSize:           cfg.Feed.BufferSize,
	}, proc, proc, apiClient, logger)

	if err := mgr.Start(ctx); err != nil {
		logger.Error("failed to start feed manager", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		mgr.Stop(shutdownCtx)
	}()

	// Retention sweeper keeps the cache bounded
	sweeper := retention.New(retention.Config{
		Interval: cfg.Retention.Interval,
		Keep:     cfg.Retention.Keep,
	}, store, logger)

	if err := sweeper.Start(ctx); err != nil {
		logger.Error("failed to start retention sweeper", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		sweeper.Stop(shutdownCtx)
	}()

	logger.Info("bridged running", "cache_dir", store.Root())

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
}
