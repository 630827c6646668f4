package catalog

// Filter selects apps. Nil flags and an empty CategoryID match everything;
// set criteria are AND-combined.
type Filter struct {
	IsFree       *bool  `json:"isFree,omitempty"`
	IsOpenSource *bool  `json:"isOpenSource,omitempty"`
	IsAppStore   *bool  `json:"isAppStore,omitempty"`
	CategoryID   string `json:"categoryId,omitempty"`
}

// Match reports whether a satisfies every criterion of f. CategoryID matches
// the app's own category or its parent, so subcategory apps are found under
// their main category.
func (f Filter) Match(a App) bool {
	if f.IsFree != nil && a.IsFree != *f.IsFree {
		return false
	}
	if f.IsOpenSource != nil && a.IsOpenSource != *f.IsOpenSource {
		return false
	}
	if f.IsAppStore != nil && a.IsAppStore != *f.IsAppStore {
		return false
	}
	if f.CategoryID != "" && a.CategoryID != f.CategoryID && a.ParentCategoryID != f.CategoryID {
		return false
	}
	return true
}

// FilterApps returns the apps matching f, preserving order.
func FilterApps(apps []App, f Filter) []App {
	out := make([]App, 0, len(apps))
	for _, a := range apps {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}
