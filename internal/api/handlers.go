package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/appcatalog/internal/analytics"
	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/catalogcache"
	"github.com/starford/appcatalog/internal/checksum"
	"github.com/starford/appcatalog/internal/query"
)

// TopQuerier reports popular queries.
type TopQuerier interface {
	TopQueries(ctx context.Context, locale string, since time.Time, limit int) ([]analytics.QueryCount, error)
}

// ReloadFunc is notified after an admin-triggered reload of one locale.
type ReloadFunc func(kind, locale, revision string)

// Handler holds API route handlers.
type Handler struct {
	svc      *query.Service
	reg      *catalogcache.Registry
	top      TopQuerier
	onReload ReloadFunc
}

// NewHandler creates a new Handler. top and onReload may be nil.
func NewHandler(svc *query.Service, reg *catalogcache.Registry, top TopQuerier, onReload ReloadFunc) *Handler {
	return &Handler{svc: svc, reg: reg, top: top, onReload: onReload}
}

// Search handles GET /api/search.
//
//	@Summary		Ranked full-text search over apps
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	false	"Search text"
//	@Param			page	query		int		false	"1-based page"
//	@Param			limit	query		int		false	"Page size (1-50)"
//	@Param			locale	query		string	false	"Catalog locale"
//	@Success		200		{object}	SearchResponse
//	@Failure		503		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	resp, err := h.svc.Search(r.Context(), query.Request{
		Query:  q.Get("q"),
		Page:   page,
		Limit:  limit,
		Locale: q.Get("locale"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Request-Id", resp.RequestID)
	writeJSON(w, http.StatusOK, resp)
}

// Categories handles GET /api/categories.
//
//	@Summary		Category tree with app counts
//	@Tags			catalog
//	@Produce		json
//	@Param			locale	query		string	false	"Catalog locale"
//	@Success		200		{object}	CategoryTreeResponse
//	@Failure		503		{object}	errResponse
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	resp := CategoryTreeResponse{
		Locale:     snap.Locale,
		Revision:   snap.Revision,
		Stats:      snap.Catalog.Stats(),
		Categories: make([]CategoryNode, 0, len(snap.Catalog.Categories)),
	}
	for _, c := range snap.Catalog.Categories {
		resp.Categories = append(resp.Categories, categoryNode(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Category handles GET /api/categories/{id}.
//
//	@Summary		One category with its apps and subcategories
//	@Tags			catalog
//	@Produce		json
//	@Param			id		path		string	true	"Category id"
//	@Param			locale	query		string	false	"Catalog locale"
//	@Success		200		{object}	catalog.Category
//	@Failure		404		{object}	errResponse
//	@Router			/categories/{id} [get]
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	c, found := snap.Catalog.Category(chi.URLParam(r, "id"))
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Apps handles GET /api/apps.
//
//	@Summary		Filter apps by badge and category
//	@Tags			catalog
//	@Produce		json
//	@Param			free		query		bool	false	"Freeware only (or not)"
//	@Param			oss			query		bool	false	"Open source only (or not)"
//	@Param			appstore	query		bool	false	"App Store only (or not)"
//	@Param			category	query		string	false	"Category id; matches subcategories too"
//	@Param			page		query		int		false	"1-based page"
//	@Param			limit		query		int		false	"Page size (1-50)"
//	@Param			locale		query		string	false	"Catalog locale"
//	@Success		200			{object}	AppPage
//	@Failure		400			{object}	errResponse
//	@Router			/apps [get]
func (h *Handler) Apps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{CategoryID: q.Get("category")}
	for param, dst := range map[string]**bool{"free": &f.IsFree, "oss": &f.IsOpenSource, "appstore": &f.IsAppStore} {
		v, err := optionalBool(q.Get(param))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid boolean for "+param))
			return
		}
		*dst = v
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.Filter(r.Context(), snap.Locale, f, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// App handles GET /api/apps/{key}.
//
//	@Summary		One app by id or slug
//	@Tags			catalog
//	@Produce		json
//	@Param			key		path		string	true	"App id or slug"
//	@Param			locale	query		string	false	"Catalog locale"
//	@Success		200		{object}	App
//	@Failure		404		{object}	errResponse
//	@Router			/apps/{key} [get]
func (h *Handler) App(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	a, found := snap.Catalog.App(chi.URLParam(r, "key"))
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Reload handles POST /api/admin/reload.
//
//	@Summary		Force a rebuild of one or every locale
//	@Tags			admin
//	@Produce		json
//	@Param			locale	query		string	false	"Locale; all when empty"
//	@Success		200		{object}	ReloadResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	locales := h.reg.Locales()
	if l := r.URL.Query().Get("locale"); l != "" {
		locales = []string{l}
	}

	resp := ReloadResponse{Results: make([]ReloadResult, 0, len(locales))}
	for _, locale := range locales {
		c, err := h.reg.Cache(locale)
		if err != nil {
			writeError(w, r, err)
			return
		}
		res := ReloadResult{Locale: locale}
		snap, err := c.Refresh(r.Context())
		if err != nil {
			res.Error = err.Error()
			h.notify(catalogcache.EventUnavailable, locale, "")
		} else {
			res.Revision = snap.Revision
			res.Apps = len(snap.Catalog.Apps)
			h.notify(catalogcache.EventUpdated, locale, snap.Revision)
		}
		resp.Results = append(resp.Results, res)
	}
	writeJSON(w, http.StatusOK, resp)
}

// TopQueries handles GET /api/admin/top-queries.
//
//	@Summary		Most frequent searches
//	@Tags			admin
//	@Produce		json
//	@Param			locale	query		string	false	"Locale; all when empty"
//	@Param			since	query		string	false	"Look-back window, e.g. 24h"
//	@Param			limit	query		int		false	"Maximum rows"
//	@Success		200		{object}	TopQueriesResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/admin/top-queries [get]
func (h *Handler) TopQueries(w http.ResponseWriter, r *http.Request) {
	if h.top == nil {
		writeJSON(w, http.StatusNotFound, errorBody("analytics disabled"))
		return
	}
	q := r.URL.Query()
	since := 24 * time.Hour
	if s := q.Get("since"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid since duration"))
			return
		}
		since = d
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	rows, err := h.top.TopQueries(r.Context(), q.Get("locale"), time.Now().Add(-since), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TopQueriesResponse{Since: since.String(), Queries: rows})
}

// snapshot loads the requested locale's catalog and handles conditional
// requests. It reports false when a response has already been written.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*catalogcache.Snapshot, bool) {
	snap, err := h.reg.Get(r.Context(), r.URL.Query().Get("locale"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	etag := checksum.ETag(snap.Locale + ":" + snap.Revision)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return nil, false
	}
	return snap, true
}

func (h *Handler) notify(kind, locale, revision string) {
	if h.onReload != nil {
		h.onReload(kind, locale, revision)
	}
}

func optionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ReadyHandler reports 200 once every configured locale has a loadable catalog.
func ReadyHandler(reg *catalogcache.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(reg.Locales()))
		ready := true
		for _, locale := range reg.Locales() {
			if _, err := reg.Get(r.Context(), locale); err != nil {
				status[locale] = "unavailable"
				ready = false
				continue
			}
			status[locale] = "ok"
		}
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{"ready": ready, "locales": status})
	}
}
