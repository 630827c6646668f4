// Package catalogcache keeps the most recently built catalog for each locale
// and rebuilds it only when the source document's revision changes.
package catalogcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/appcatalog/internal/apperr"
	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/outline"
	"github.com/starford/appcatalog/internal/source"
)

// BuildFunc turns outline nodes into a catalog.
type BuildFunc func([]outline.Node) *catalog.Catalog

// Snapshot is an immutable catalog together with the revision it was built from.
type Snapshot struct {
	Locale   string
	Revision string
	Catalog  *catalog.Catalog
	LoadedAt time.Time
}

// Cache holds the current Snapshot of one locale.
//
// Readers never block behind a rebuild of a different revision. Concurrent
// callers that observe the same stale revision share a single load through
// singleflight; callers that observe different revisions may rebuild in
// parallel and the last one to finish wins the slot.
type Cache struct {
	locale string
	src    source.Provider
	build  BuildFunc
	logger *slog.Logger

	group   singleflight.Group
	current atomic.Pointer[Snapshot]
	builds  atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBuildFunc replaces catalog.Build.
func WithBuildFunc(fn BuildFunc) Option {
	return func(c *Cache) {
		if fn != nil {
			c.build = fn
		}
	}
}

// New creates an empty cache for locale. Nothing is loaded until Get.
func New(src source.Provider, locale string, opts ...Option) *Cache {
	c := &Cache{
		locale: locale,
		src:    src,
		build:  catalog.Build,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Locale returns the locale served by the cache.
func (c *Cache) Locale() string { return c.locale }

// Builds returns how many catalogs this cache has built.
func (c *Cache) Builds() int64 { return c.builds.Load() }

// Peek returns the current snapshot without touching the source, or nil.
func (c *Cache) Peek() *Snapshot { return c.current.Load() }

// Get returns the catalog for the source's current revision, loading and
// building it when the cached one is missing or stale. Source failures are
// reported as apperr.ErrSourceUnavailable.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	rev, err := c.src.Revision(ctx, c.locale)
	if err != nil {
		return nil, c.unavailable(err)
	}
	if cur := c.current.Load(); cur != nil && cur.Revision == rev {
		return cur, nil
	}
	return c.load(ctx, rev)
}

// Refresh drops the cached snapshot and loads the current revision.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.Invalidate()
	return c.Get(ctx)
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}

// load builds the snapshot for rev once, however many callers ask. The
// shared load is detached from the callers' contexts; a caller that gives up
// stops waiting without failing the others.
func (c *Cache) load(ctx context.Context, rev string) (*Snapshot, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(rev, func() (any, error) {
		if cur := c.current.Load(); cur != nil && cur.Revision == rev {
			return cur, nil
		}
		doc, err := c.src.Load(loadCtx, c.locale)
		if err != nil {
			return nil, err
		}

		begin := time.Now()
		cat, err := c.safeBuild(doc.Nodes)
		if err != nil {
			return nil, err
		}
		c.builds.Add(1)

		snap := &Snapshot{
			Locale:   c.locale,
			Revision: doc.Revision,
			Catalog:  cat,
			LoadedAt: time.Now(),
		}
		c.current.Store(snap)

		stats := cat.Stats()
		c.logger.Info("catalog built",
			slog.String("locale", c.locale),
			slog.String("revision", doc.Revision),
			slog.Int("categories", stats.Categories),
			slog.Int("subcategories", stats.Subcategories),
			slog.Int("apps", stats.Apps),
			slog.Int("skipped", stats.Skipped),
			slog.Duration("duration", time.Since(begin)))
		for _, s := range cat.Skipped {
			c.logger.Debug("catalog item skipped",
				slog.String("locale", c.locale),
				slog.String("reason", string(s.Reason)),
				slog.String("title", s.Title))
		}
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, c.unavailable(res.Err)
		}
		if res.Shared {
			c.logger.Debug("catalog load shared", slog.String("locale", c.locale), slog.String("revision", rev))
		}
		return res.Val.(*Snapshot), nil
	}
}

func (c *Cache) safeBuild(nodes []outline.Node) (cat *catalog.Catalog, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catalogcache: build: %v", r)
		}
	}()
	cat = c.build(nodes)
	if cat == nil {
		return nil, fmt.Errorf("catalogcache: build returned no catalog")
	}
	return cat, nil
}

func (c *Cache) unavailable(err error) error {
	if errors.Is(err, apperr.ErrSourceUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Unavailable(c.locale, err)
}
