// Package catalog builds the typed category tree and flat app list of an app
// directory from a sequence of outline nodes.
package catalog

// Category depths.
const (
	DepthMain = 2
	DepthSub  = 3
)

// Category is a main category (depth 2) or a subcategory (depth 3).
// Subcategories always carry the id and name of their main category.
type Category struct {
	ID            string      `json:"id"`
	Slug          string      `json:"slug"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Depth         int         `json:"depth"`
	ParentID      string      `json:"parentId,omitempty"`
	ParentName    string      `json:"parentName,omitempty"`
	Apps          []App       `json:"apps"`
	Subcategories []*Category `json:"subcategories,omitempty"`
}

// AppCount returns the number of apps in the category and its subcategories.
func (c *Category) AppCount() int {
	n := len(c.Apps)
	for _, sub := range c.Subcategories {
		n += sub.AppCount()
	}
	return n
}

// App is one catalog entry.
type App struct {
	ID                 string `json:"id"`
	Slug               string `json:"slug"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	URL                string `json:"url"`
	IsFree             bool   `json:"isFree"`
	IsOpenSource       bool   `json:"isOpenSource"`
	IsAppStore         bool   `json:"isAppStore"`
	HasAwesomeList     bool   `json:"hasAwesomeList"`
	OSSURL             string `json:"ossUrl,omitempty"`
	AppStoreURL        string `json:"appStoreUrl,omitempty"`
	AwesomeListURL     string `json:"awesomeListUrl,omitempty"`
	CategoryID         string `json:"categoryId"`
	CategoryName       string `json:"categoryName"`
	ParentCategoryID   string `json:"parentCategoryId,omitempty"`
	ParentCategoryName string `json:"parentCategoryName,omitempty"`
}

// AppSummary is the display projection of an App returned by search.
type AppSummary struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	IsFree       bool   `json:"isFree"`
	IsOpenSource bool   `json:"isOpenSource"`
	IsAppStore   bool   `json:"isAppStore"`
}

// Summary projects the app onto its display fields.
func (a App) Summary() AppSummary {
	return AppSummary{
		ID:           a.ID,
		Slug:         a.Slug,
		Name:         a.Name,
		Description:  a.Description,
		CategoryID:   a.CategoryID,
		CategoryName: a.CategoryName,
		IsFree:       a.IsFree,
		IsOpenSource: a.IsOpenSource,
		IsAppStore:   a.IsAppStore,
	}
}

// DisplayView returns copies of apps that keep only the fields present in
// AppSummary. Search indexes are built over this view.
func DisplayView(apps []App) []App {
	out := make([]App, len(apps))
	for i, a := range apps {
		s := a.Summary()
		out[i] = App{
			ID:           s.ID,
			Slug:         s.Slug,
			Name:         s.Name,
			Description:  s.Description,
			CategoryID:   s.CategoryID,
			CategoryName: s.CategoryName,
			IsFree:       s.IsFree,
			IsOpenSource: s.IsOpenSource,
			IsAppStore:   s.IsAppStore,
		}
	}
	return out
}

// Summaries projects every app.
func Summaries(apps []App) []AppSummary {
	out := make([]AppSummary, len(apps))
	for i, a := range apps {
		out[i] = a.Summary()
	}
	return out
}

// SkipReason says why a node or list item did not make it into the catalog.
type SkipReason string

const (
	SkipNoMark            SkipReason = "no-mark"
	SkipDeleted           SkipReason = "deleted"
	SkipMissingTitle      SkipReason = "missing-title"
	SkipMissingURL        SkipReason = "missing-url"
	SkipNoCategory        SkipReason = "no-category"
	SkipOrphanSubcategory SkipReason = "orphan-subcategory"
	SkipOrphanDescription SkipReason = "orphan-description"
)

// Skip records one tolerated anomaly in the input.
type Skip struct {
	Reason SkipReason `json:"reason"`
	Title  string     `json:"title,omitempty"`
}

// Stats summarises a catalog.
type Stats struct {
	Categories    int `json:"categories"`
	Subcategories int `json:"subcategories"`
	Apps          int `json:"apps"`
	Skipped       int `json:"skipped"`
}

// Catalog is the parsed directory. It is not modified after Build returns.
type Catalog struct {
	Categories []*Category `json:"categories"`
	Apps       []App       `json:"apps"`
	Skipped    []Skip      `json:"-"`

	categoryMap map[string]*Category
	appMap      map[string]*App
}

// Category looks up a main category or subcategory by id.
func (c *Catalog) Category(id string) (*Category, bool) {
	cat, ok := c.categoryMap[id]
	return cat, ok
}

// App looks up an app by id or slug. Apps sharing a slug (or a slug equal to
// another app's id) shadow earlier entries: the last one in document order wins.
func (c *Catalog) App(key string) (App, bool) {
	a, ok := c.appMap[key]
	if !ok {
		return App{}, false
	}
	return *a, true
}

// AllCategories returns main categories and subcategories in document order.
func (c *Catalog) AllCategories() []*Category {
	var out []*Category
	for _, main := range c.Categories {
		out = append(out, main)
		out = append(out, main.Subcategories...)
	}
	return out
}

// Stats returns category, subcategory, app and skip counts.
func (c *Catalog) Stats() Stats {
	s := Stats{
		Categories: len(c.Categories),
		Apps:       len(c.Apps),
		Skipped:    len(c.Skipped),
	}
	for _, main := range c.Categories {
		s.Subcategories += len(main.Subcategories)
	}
	return s
}
