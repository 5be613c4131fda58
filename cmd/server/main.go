package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/reproject/internal/config"
	"github.com/JonMunkholm/reproject/internal/core"
	"github.com/JonMunkholm/reproject/internal/crs"
	"github.com/JonMunkholm/reproject/internal/logging"
	"github.com/JonMunkholm/reproject/internal/store"
	"github.com/JonMunkholm/reproject/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.Database.Enabled(),
		"convert_max_concurrent", cfg.Convert.MaxConcurrent,
		"crs_fetch_enabled", cfg.CRS.FetchEnabled,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()

	// CRS registry and presets
	registry := crs.NewRegistry()
	catalog := crs.DefaultCatalog()
	if cfg.CRS.CatalogPath != "" {
		catalog, err = crs.LoadCatalog(cfg.CRS.CatalogPath)
		if err != nil {
			slog.Error("failed to load crs catalog", "path", cfg.CRS.CatalogPath, "error", err)
			os.Exit(1)
		}
	}
	if err := catalog.Register(registry); err != nil {
		slog.Error("failed to register crs catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("crs registry ready", "codes", len(registry.Codes()), "presets", len(catalog.Entries))

	resolver := &crs.Resolver{Registry: registry}
	if cfg.CRS.FetchEnabled {
		resolver.Fetcher = crs.NewFetcher(cfg.CRS.FetchURL, cfg.CRS.FetchTimeout)
	}

	// Optional database for history and the CRS definition cache
	var history core.HistoryStore
	if cfg.Database.Enabled() {
		pool, err := store.Connect(ctx, cfg.Database.URL, store.PoolOptions{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}

		st := store.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare database schema", "error", err)
			os.Exit(1)
		}
		history = st
		resolver.Store = st
	} else {
		slog.Info("no database configured, conversion history disabled")
	}

	engine := crs.NewEngine(registry)
	defer engine.Close()
	service := core.NewService(engine.Transform, resolver, history, core.ServiceConfig{
		MaxConcurrent: cfg.Convert.MaxConcurrent,
		MaxWait:       cfg.Convert.MaxWaitTime,
		Timeout:       cfg.Convert.Timeout,
		MaxRows:       cfg.Convert.MaxRows,
	})

	server := web.NewServer(service, resolver, catalog, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartHistoryPruner(jobCtx, core.HistoryPrunerConfig{
		RetentionDays: cfg.History.RetentionDays,
		Interval:      cfg.History.PruneInterval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active conversions to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Active)
			if err := service.WaitForConversions(shutdownCtx); err != nil {
				slog.Warn("conversions did not complete in time", "error", err)
			} else {
				slog.Info("all conversions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
