package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/appcatalog/internal/catalogcache"
	"github.com/starford/appcatalog/internal/query"
)

// Options configures the API router.
type Options struct {
	// AuthEnabled controls whether Bearer token auth is enforced on admin routes.
	AuthEnabled bool
	AuthToken   string
	// AllowedOrigins lists CORS origins; empty disables CORS.
	AllowedOrigins []string
	// Limiter, if non-nil, rate limits every route per client IP.
	Limiter *IPRateLimiter
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// TopQueries, if non-nil, backs GET /admin/top-queries.
	TopQueries TopQuerier
	// OnReload is notified after each admin-triggered reload.
	OnReload ReloadFunc
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *query.Service, reg *catalogcache.Registry, opts Options) chi.Router {
	h := NewHandler(svc, reg, opts.TopQueries, opts.OnReload)

	r := chi.NewRouter()
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))
	r.Use(middleware.SetHeader("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(RateLimit(opts.Limiter))

	// Search.
	r.Get("/search", h.Search)

	// Catalog browsing.
	r.Get("/categories", h.Categories)
	r.Get("/categories/{id}", h.Category)
	r.Get("/apps", h.Apps)
	r.Get("/apps/{key}", h.App)

	// SSE endpoint.
	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	// Admin routes (auth-protected).
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.AuthEnabled, opts.AuthToken))
		r.Post("/admin/reload", h.Reload)
		r.Get("/admin/top-queries", h.TopQueries)
	})

	return r
}
