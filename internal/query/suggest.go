package query

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/appcatalog/internal/catalog"
)

// minStem is the shortest query prefix Suggest falls back to.
const minStem = 2

// Suggest proposes up to limit names for a query that matched nothing.
//
// Names are gathered in three tiers: app names starting with the needle, app
// names containing it, then category names containing it. The full query is
// tried first; only when it yields nothing is the needle shortened one rune at
// a time, down to two runes, so a misspelt tail still finds its stem. The
// first needle that yields any name ends the search. Duplicates are suppressed.
func Suggest(cat *catalog.Catalog, query string, limit int) []string {
	needle := strings.ToLower(strings.TrimSpace(query))
	if cat == nil || needle == "" || limit <= 0 {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(name string) bool {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
		return len(out) >= limit
	}

	for {
		for _, a := range cat.Apps {
			if strings.HasPrefix(strings.ToLower(a.Name), needle) && add(a.Name) {
				return out
			}
		}
		for _, a := range cat.Apps {
			if strings.Contains(strings.ToLower(a.Name), needle) && add(a.Name) {
				return out
			}
		}
		for _, c := range cat.AllCategories() {
			if strings.Contains(strings.ToLower(c.Name), needle) && add(c.Name) {
				return out
			}
		}
		if len(out) > 0 || utf8.RuneCountInString(needle) <= minStem {
			return out
		}
		needle = dropLastRune(needle)
	}
}

func dropLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
