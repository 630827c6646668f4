// Package query answers catalog searches: it ranks, paginates and suggests
// over the current catalog of a locale.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/starford/appcatalog/internal/analytics"
	"github.com/starford/appcatalog/internal/apperr"
	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/catalogcache"
	"github.com/starford/appcatalog/internal/search"
)

// Config bounds the work done per request.
type Config struct {
	// CandidateCap is the maximum number of ranked matches considered before
	// pagination. Totals never exceed it; Pagination.Truncated reports when
	// more matches existed.
	CandidateCap    int
	DefaultLimit    int
	MaxLimit        int
	SuggestionLimit int
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		CandidateCap:    250,
		DefaultLimit:    search.DefaultLimit,
		MaxLimit:        50,
		SuggestionLimit: 5,
	}
}

// EventSink receives one event per answered search. Emit must not block.
type EventSink interface {
	Emit(ev analytics.SearchEvent)
}

// Request is a search request. Zero Page and Limit select the defaults.
type Request struct {
	Query  string
	Page   int
	Limit  int
	Locale string
}

// Pagination describes one page of a ranked result list.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
	Truncated  bool `json:"truncated"`
}

// Response is the answer to a search Request.
type Response struct {
	Query       string               `json:"q"`
	Results     []catalog.AppSummary `json:"results"`
	Pagination  Pagination           `json:"pagination"`
	Suggestions []string             `json:"suggestions,omitempty"`
	RequestID   string               `json:"requestId"`
}

// AppPage is one page of filtered apps.
type AppPage struct {
	Apps       []catalog.App `json:"apps"`
	Pagination Pagination    `json:"pagination"`
}

type indexed struct {
	catalog *catalog.Catalog
	index   *search.Index
}

// Service combines the per-locale catalog caches with search indexes.
type Service struct {
	reg    *catalogcache.Registry
	cfg    Config
	sink   EventSink
	logger *slog.Logger
	newID  func() string

	mu      sync.Mutex
	indexes map[string]*atomic.Pointer[indexed]
}

// Option configures a Service.
type Option func(*Service)

// WithConfig overrides DefaultConfig. Non-positive fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		def := DefaultConfig()
		if cfg.CandidateCap <= 0 {
			cfg.CandidateCap = def.CandidateCap
		}
		if cfg.MaxLimit <= 0 {
			cfg.MaxLimit = def.MaxLimit
		}
		if cfg.DefaultLimit <= 0 {
			cfg.DefaultLimit = def.DefaultLimit
		}
		if cfg.DefaultLimit > cfg.MaxLimit {
			cfg.DefaultLimit = cfg.MaxLimit
		}
		if cfg.SuggestionLimit <= 0 {
			cfg.SuggestionLimit = def.SuggestionLimit
		}
		s.cfg = cfg
	}
}

// WithEventSink sets where search events are sent. Default is none.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestIDFunc replaces the request id generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates a Service over reg.
func New(reg *catalogcache.Registry, opts ...Option) *Service {
	s := &Service{
		reg:     reg,
		cfg:     DefaultConfig(),
		logger:  slog.Default(),
		newID:   uuid.NewString,
		indexes: make(map[string]*atomic.Pointer[indexed]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective limits.
func (s *Service) Config() Config { return s.cfg }

// Search ranks the locale's apps against req.Query and returns one page.
//
// A blank query is a valid request with no results. A missing or unreadable
// source yields an error matching apperr.ErrSourceUnavailable; an unknown
// locale yields apperr.ErrNotFound.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	begin := time.Now()
	page, limit := s.clamp(req.Page, req.Limit)
	resp := &Response{
		Query:     req.Query,
		Results:   []catalog.AppSummary{},
		RequestID: s.newID(),
	}

	q := strings.TrimSpace(req.Query)
	if q == "" {
		resp.Pagination = paginate(0, page, limit)
		return resp, nil
	}

	snap, err := s.reg.Get(ctx, req.Locale)
	if err != nil {
		return nil, err
	}
	ix := s.index(snap)

	hits := ix.Search(q, s.cfg.CandidateCap+1)
	truncated := len(hits) > s.cfg.CandidateCap
	if truncated {
		hits = hits[:s.cfg.CandidateCap]
	}

	resp.Pagination = paginate(len(hits), page, limit)
	resp.Pagination.Truncated = truncated
	start, end := bounds(len(hits), page, limit)
	for _, h := range hits[start:end] {
		resp.Results = append(resp.Results, h.App.Summary())
	}
	if len(hits) == 0 {
		resp.Suggestions = Suggest(snap.Catalog, q, s.cfg.SuggestionLimit)
	}

	if s.sink != nil {
		s.sink.Emit(analytics.SearchEvent{
			RequestID: resp.RequestID,
			Locale:    snap.Locale,
			Query:     q,
			Total:     resp.Pagination.Total,
			Page:      page,
			Duration:  time.Since(begin),
			At:        begin,
		})
	}
	s.logger.Debug("search",
		slog.String("request_id", resp.RequestID),
		slog.String("locale", snap.Locale),
		slog.String("q", q),
		slog.Int("total", resp.Pagination.Total),
		slog.Bool("truncated", truncated))
	return resp, nil
}

// Catalog returns the locale's current catalog.
func (s *Service) Catalog(ctx context.Context, locale string) (*catalog.Catalog, error) {
	snap, err := s.reg.Get(ctx, locale)
	if err != nil {
		return nil, err
	}
	return snap.Catalog, nil
}

// App looks up an app by id or slug.
func (s *Service) App(ctx context.Context, locale, key string) (catalog.App, error) {
	cat, err := s.Catalog(ctx, locale)
	if err != nil {
		return catalog.App{}, err
	}
	a, ok := cat.App(key)
	if !ok {
		return catalog.App{}, fmt.Errorf("query: app %q: %w", key, apperr.ErrNotFound)
	}
	return a, nil
}

// Category looks up a main category or subcategory by id.
func (s *Service) Category(ctx context.Context, locale, id string) (*catalog.Category, error) {
	cat, err := s.Catalog(ctx, locale)
	if err != nil {
		return nil, err
	}
	c, ok := cat.Category(id)
	if !ok {
		return nil, fmt.Errorf("query: category %q: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

// Filter returns one page of the locale's apps matching f, in document order.
func (s *Service) Filter(ctx context.Context, locale string, f catalog.Filter, page, limit int) (*AppPage, error) {
	cat, err := s.Catalog(ctx, locale)
	if err != nil {
		return nil, err
	}
	page, limit = s.clamp(page, limit)
	apps := catalog.FilterApps(cat.Apps, f)
	start, end := bounds(len(apps), page, limit)
	return &AppPage{
		Apps:       apps[start:end],
		Pagination: paginate(len(apps), page, limit),
	}, nil
}

// index returns the search index for snap's catalog, building it when the
// catalog has changed since the last call for that locale.
func (s *Service) index(snap *catalogcache.Snapshot) *search.Index {
	slot := s.slot(snap.Locale)
	if cur := slot.Load(); cur != nil && cur.catalog == snap.Catalog {
		return cur.index
	}
	ix := search.New(catalog.DisplayView(snap.Catalog.Apps), search.WithLanguage(language.Make(snap.Locale)))
	slot.Store(&indexed{catalog: snap.Catalog, index: ix})
	return ix
}

func (s *Service) slot(locale string) *atomic.Pointer[indexed] {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.indexes[locale]
	if !ok {
		p = new(atomic.Pointer[indexed])
		s.indexes[locale] = p
	}
	return p
}

func (s *Service) clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	return page, limit
}

func paginate(total, page, limit int) Pagination {
	pages := (total + limit - 1) / limit
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasMore:    page < pages,
	}
}

// bounds returns the slice bounds of page within total items. Pages past the
// end yield an empty range.
func bounds(total, page, limit int) (int, int) {
	if page > (total+limit-1)/limit {
		return total, total
	}
	start := (page - 1) * limit
	return start, min(start+limit, total)
}
