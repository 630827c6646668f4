// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/appcatalog/internal/api"
	"github.com/starford/appcatalog/internal/catalogcache"
	"github.com/starford/appcatalog/internal/mcpserver"
	"github.com/starford/appcatalog/internal/query"
	"github.com/starford/appcatalog/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, app)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("default_locale", cfg.Catalog.DefaultLocale),
		slog.Int("locales", len(cfg.Catalog.Sources)),
		slog.Bool("analytics", cfg.Analytics.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	comp, err := newComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comp.close()

	// Build every catalog once so the first request does not pay for it.
	if err := comp.registry.Warm(ctx); err != nil {
		logger.Warn("initial catalog load failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	apiOpts := api.Options{
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		AuthToken:      cfg.Auth.Token,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Events:         broker,
		OnReload:       broker.PublishCatalogEvent,
	}
	if cfg.RateLimit.Enabled {
		apiOpts.Limiter = api.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if comp.store != nil {
		apiOpts.TopQueries = comp.store
	}
	apiRouter := api.NewRouter(comp.query, comp.registry, apiOpts)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", api.ReadyHandler(comp.registry))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start source watcher with SSE callback.
	if cfg.Catalog.Watch {
		g.Go(func() error {
			if err := catalogcache.Watch(gCtx, comp.registry, comp.sourcePaths(), logger, broker.PublishCatalogEvent); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Unblock the watcher when shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the catalog tools over stdio. Logs go to the configured
// log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	logger := newLogger(app.config, app)
	slog.SetDefault(logger)

	comp, err := newComponents(app.config, logger)
	if err != nil {
		return err
	}
	defer comp.close()

	if err := comp.registry.Warm(ctx); err != nil {
		logger.Warn("initial catalog load failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(comp.query, app.version).ServeStdio()
}

// RunSearch answers one query and writes the JSON response to out.
func RunSearch(ctx context.Context, out io.Writer, req query.Request, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	logger := newLogger(app.config, app)
	slog.SetDefault(logger)

	comp, err := newComponents(app.config, logger)
	if err != nil {
		return err
	}
	defer comp.close()

	resp, err := comp.query.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
