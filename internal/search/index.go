// Package search provides an in-memory, ranked search index over catalog apps.
package search

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/tokenize"
)

// DefaultLimit is used when Search is called with a non-positive limit.
const DefaultLimit = 20

// Match tags reported on results.
const (
	MatchNameExact           = "name:exact"
	MatchNamePrefix          = "name:prefix"
	MatchNameContains        = "name:contains"
	MatchDescriptionContains = "description:contains"
	MatchCategoryContains    = "category:contains"
	MatchTokens              = "tokens:name"
)

// Score weights.
const (
	scoreNameExact    = 100
	scoreNamePrefix   = 75
	scoreNameContains = 50
	scoreDescription  = 20
	scoreCategory     = 15
	scoreTokenPrefix  = 10
	scoreTokenExact   = 5
)

// Result is one ranked hit.
type Result struct {
	App     catalog.App `json:"app"`
	Score   int         `json:"score"`
	Matches []string    `json:"matches"`
}

type entry struct {
	app           catalog.App
	nameLower     string
	descLower     string
	categoryLower string
	tokens        []string
	tokenSet      map[string]struct{}
}

func newEntry(app catalog.App) *entry {
	tokens := tokenize.Unique(app.Name, app.Description, app.CategoryName)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return &entry{
		app:           app,
		nameLower:     strings.ToLower(app.Name),
		descLower:     strings.ToLower(app.Description),
		categoryLower: strings.ToLower(app.CategoryName),
		tokens:        tokens,
		tokenSet:      set,
	}
}

// Index maps app ids to precomputed search entries. It is safe for
// concurrent use; Add, Remove and Clear are visible to subsequent searches.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lang    language.Tag
}

// Option configures an Index.
type Option func(*Index)

// WithLanguage sets the collation language used to order equally scored results.
// Default is English.
func WithLanguage(tag language.Tag) Option {
	return func(ix *Index) {
		ix.lang = tag
	}
}

// New indexes apps. Apps sharing an id replace earlier ones.
func New(apps []catalog.App, opts ...Option) *Index {
	ix := &Index{
		entries: make(map[string]*entry, len(apps)),
		lang:    language.English,
	}
	for _, opt := range opts {
		opt(ix)
	}
	for _, a := range apps {
		ix.entries[a.ID] = newEntry(a)
	}
	return ix
}

// Add indexes app, replacing any entry with the same id.
func (ix *Index) Add(app catalog.App) {
	e := newEntry(app)
	ix.mu.Lock()
	ix.entries[app.ID] = e
	ix.mu.Unlock()
}

// Remove drops the entry for id and reports whether it existed.
func (ix *Index) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	_, ok := ix.entries[id]
	delete(ix.entries, id)
	return ok
}

// Clear drops every entry.
func (ix *Index) Clear() {
	ix.mu.Lock()
	ix.entries = make(map[string]*entry)
	ix.mu.Unlock()
}

// Len returns the number of indexed apps.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search ranks indexed apps against query and returns at most limit results.
//
// Name matches score 100 (exact), 75 (prefix) or 50 (substring); description
// and category substrings add 20 and 15; each query token that prefixes an
// indexed token adds 10, plus 5 more when it equals one. Apps scoring zero are
// excluded. Ties are ordered by name using the index collation language.
func (ix *Index) Search(query string, limit int) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Result{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	queryTokens := tokenize.Tokenize(q)

	ix.mu.RLock()
	results := make([]Result, 0, len(ix.entries)/4)
	for _, e := range ix.entries {
		if score, matches := e.score(q, queryTokens); score > 0 {
			results = append(results, Result{App: e.app, Score: score, Matches: matches})
		}
	}
	ix.mu.RUnlock()

	coll := collate.New(ix.lang)
	slices.SortFunc(results, func(a, b Result) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		if c := coll.CompareString(a.App.Name, b.App.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.App.ID, b.App.ID)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (e *entry) score(q string, queryTokens []string) (int, []string) {
	var score int
	var matches []string

	switch {
	case e.nameLower == q:
		score += scoreNameExact
		matches = append(matches, MatchNameExact)
	case strings.HasPrefix(e.nameLower, q):
		score += scoreNamePrefix
		matches = append(matches, MatchNamePrefix)
	case strings.Contains(e.nameLower, q):
		score += scoreNameContains
		matches = append(matches, MatchNameContains)
	}

	if strings.Contains(e.descLower, q) {
		score += scoreDescription
		matches = append(matches, MatchDescriptionContains)
	}
	if strings.Contains(e.categoryLower, q) {
		score += scoreCategory
		matches = append(matches, MatchCategoryContains)
	}

	tokenMatches := 0
	for _, qt := range queryTokens {
		if e.hasTokenPrefix(qt) {
			tokenMatches++
			score += scoreTokenPrefix
		}
		if _, ok := e.tokenSet[qt]; ok {
			score += scoreTokenExact
		}
	}
	if tokenMatches > 0 {
		matches = append(matches, MatchTokens)
	}

	return score, matches
}

func (e *entry) hasTokenPrefix(qt string) bool {
	for _, tok := range e.tokens {
		if strings.HasPrefix(tok, qt) {
			return true
		}
	}
	return false
}
