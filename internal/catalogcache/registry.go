package catalogcache

import (
	"context"
	"fmt"

	"github.com/starford/appcatalog/internal/apperr"
	"github.com/starford/appcatalog/internal/source"
)

// Registry holds one independent Cache per locale.
type Registry struct {
	caches        map[string]*Cache
	locales       []string
	defaultLocale string
}

// NewRegistry creates a cache for every locale of src. defaultLocale must be one of them.
func NewRegistry(src source.Provider, defaultLocale string, opts ...Option) (*Registry, error) {
	r := &Registry{
		caches:        make(map[string]*Cache),
		locales:       src.Locales(),
		defaultLocale: defaultLocale,
	}
	for _, locale := range r.locales {
		r.caches[locale] = New(src, locale, opts...)
	}
	if _, ok := r.caches[defaultLocale]; !ok {
		return nil, fmt.Errorf("catalogcache: default locale %q is not configured", defaultLocale)
	}
	return r, nil
}

// Locales returns the configured locales.
func (r *Registry) Locales() []string {
	return append([]string(nil), r.locales...)
}

// DefaultLocale returns the locale used when none is requested.
func (r *Registry) DefaultLocale() string { return r.defaultLocale }

// Cache returns the cache for locale; an empty locale selects the default.
// Unknown locales yield an error wrapping apperr.ErrNotFound.
func (r *Registry) Cache(locale string) (*Cache, error) {
	if locale == "" {
		locale = r.defaultLocale
	}
	c, ok := r.caches[locale]
	if !ok {
		return nil, fmt.Errorf("catalogcache: locale %q: %w", locale, apperr.ErrNotFound)
	}
	return c, nil
}

// Get returns the current snapshot for locale.
func (r *Registry) Get(ctx context.Context, locale string) (*Snapshot, error) {
	c, err := r.Cache(locale)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx)
}

// Warm loads every locale once and returns the first error encountered.
func (r *Registry) Warm(ctx context.Context) error {
	var first error
	for _, locale := range r.locales {
		if _, err := r.caches[locale].Get(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
