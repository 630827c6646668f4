package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/appcatalog/internal/analytics"
	"github.com/starford/appcatalog/internal/catalogcache"
	"github.com/starford/appcatalog/internal/outline"
	"github.com/starford/appcatalog/internal/query"
	"github.com/starford/appcatalog/internal/source"
)

// components are the long-lived parts shared by every entrypoint.
type components struct {
	source   *source.FS
	registry *catalogcache.Registry
	query    *query.Service
	store    *analytics.Store
	emitter  *analytics.Emitter
}

func newComponents(cfg *Config, logger *slog.Logger) (*components, error) {
	fs, err := source.NewFS(cfg.Catalog.Sources, outline.WithIgnoredSections(cfg.Catalog.IgnoreSections...))
	if err != nil {
		return nil, fmt.Errorf("init source: %w", err)
	}

	reg, err := catalogcache.NewRegistry(fs, cfg.Catalog.DefaultLocale, catalogcache.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init catalog cache: %w", err)
	}

	c := &components{source: fs, registry: reg}

	queryOpts := []query.Option{
		query.WithConfig(cfg.Search.QueryConfig()),
		query.WithLogger(logger),
	}
	if cfg.Analytics.Enabled {
		store, err := analytics.Open(cfg.Analytics.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init analytics: %w", err)
		}
		emitter, err := analytics.NewEmitter(store, cfg.Analytics.Workers, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init analytics emitter: %w", err)
		}
		c.store, c.emitter = store, emitter
		queryOpts = append(queryOpts, query.WithEventSink(emitter))
	}
	c.query = query.New(reg, queryOpts...)

	return c, nil
}

// sourcePaths returns locale -> absolute document path for the watcher.
func (c *components) sourcePaths() map[string]string {
	paths := make(map[string]string)
	for _, locale := range c.source.Locales() {
		if p, ok := c.source.Path(locale); ok {
			paths[locale] = p
		}
	}
	return paths
}

// close drains pending analytics before closing the database.
func (c *components) close() {
	if c.emitter != nil {
		c.emitter.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

func newLogger(cfg *Config, app *application) *slog.Logger {
	out := app.logOutput
	if out == nil {
		out = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}
