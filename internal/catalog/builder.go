package catalog

import (
	"strings"

	"github.com/starford/appcatalog/internal/outline"
)

// cursor tracks the categories that subsequent nodes attach to.
type cursor struct {
	main *Category
	sub  *Category
}

// target is the category that list items and descriptions attach to.
func (c cursor) target() *Category {
	if c.sub != nil {
		return c.sub
	}
	return c.main
}

// Build reconstructs the category tree and app list from nodes in a single
// pass. Structure is implied by order: a depth 3 heading belongs to the most
// recent depth 2 heading, and lists and descriptions belong to the most recent
// heading of either depth. Items that cannot be placed are recorded in
// Catalog.Skipped instead of failing the build.
func Build(nodes []outline.Node) *Catalog {
	c := &Catalog{}
	var cur cursor
	for _, n := range nodes {
		cur = c.apply(cur, n)
	}
	c.index()
	return c
}

func (c *Catalog) apply(cur cursor, node outline.Node) cursor {
	switch n := node.(type) {
	case outline.Heading:
		return c.heading(cur, n)

	case outline.Description:
		target := cur.target()
		if target == nil {
			c.skip(SkipOrphanDescription, n.Emphasis)
			return cur
		}
		if target.Description == "" {
			target.Description = n.Emphasis
		}
		return cur

	case outline.AppList:
		for _, item := range n.Items {
			c.item(cur, item)
		}
		return cur
	}
	return cur
}

func (c *Catalog) heading(cur cursor, h outline.Heading) cursor {
	name := strings.TrimSpace(h.Text)
	switch h.Depth {
	case DepthMain:
		main := &Category{
			ID:    Slugify(name),
			Slug:  Slugify(name),
			Name:  name,
			Depth: DepthMain,
			Apps:  []App{},
		}
		c.Categories = append(c.Categories, main)
		return cursor{main: main}

	case DepthSub:
		if cur.main == nil {
			c.skip(SkipOrphanSubcategory, name)
			return cursor{}
		}
		slug := Slugify(name)
		sub := &Category{
			ID:         joinID(cur.main.ID, slug),
			Slug:       slug,
			Name:       name,
			Depth:      DepthSub,
			ParentID:   cur.main.ID,
			ParentName: cur.main.Name,
			Apps:       []App{},
		}
		cur.main.Subcategories = append(cur.main.Subcategories, sub)
		return cursor{main: cur.main, sub: sub}
	}
	return cur
}

func (c *Catalog) item(cur cursor, item outline.ListItem) {
	mark := item.Mark
	if mark == nil {
		c.skip(SkipNoMark, "")
		return
	}
	title := strings.TrimSpace(mark.Title)
	if mark.Deleted {
		c.skip(SkipDeleted, title)
		return
	}
	url := strings.TrimSpace(mark.URL)
	if title == "" {
		c.skip(SkipMissingTitle, "")
		return
	}
	if url == "" {
		c.skip(SkipMissingURL, title)
		return
	}
	target := cur.target()
	if target == nil {
		c.skip(SkipNoCategory, title)
		return
	}

	slug := Slugify(title)
	app := App{
		ID:           joinID(target.ID, slug),
		Slug:         slug,
		Name:         title,
		Description:  itemDescription(item),
		URL:          url,
		CategoryID:   target.ID,
		CategoryName: target.Name,
	}
	if target.Depth == DepthSub {
		app.ParentCategoryID = target.ParentID
		app.ParentCategoryName = target.ParentName
	}
	for _, icon := range mark.Icons {
		switch icon.Type {
		case outline.IconOSS:
			app.IsOpenSource = true
			if app.OSSURL == "" {
				app.OSSURL = icon.URL
			}
		case outline.IconFreeware:
			app.IsFree = true
		case outline.IconAppStore:
			app.IsAppStore = true
			if app.AppStoreURL == "" {
				app.AppStoreURL = icon.URL
			}
		case outline.IconAwesomeList:
			app.HasAwesomeList = true
			if app.AwesomeListURL == "" {
				app.AwesomeListURL = icon.URL
			}
		}
	}

	target.Apps = append(target.Apps, app)
	c.Apps = append(c.Apps, app)
}

// itemDescription joins the text children of the item (the title link is
// excluded) and strips the leading dash separator.
func itemDescription(item outline.ListItem) string {
	s := strings.TrimSpace(item.Text())
	s = strings.TrimLeft(s, "-–— \t")
	return strings.TrimSpace(s)
}

func (c *Catalog) skip(reason SkipReason, title string) {
	c.Skipped = append(c.Skipped, Skip{Reason: reason, Title: title})
}

// index builds the lookup maps. Ids are registered before slugs, in document
// order, so a later app shadows an earlier one with the same key.
func (c *Catalog) index() {
	if c.Apps == nil {
		c.Apps = []App{}
	}
	if c.Categories == nil {
		c.Categories = []*Category{}
	}
	c.categoryMap = make(map[string]*Category)
	for _, cat := range c.AllCategories() {
		c.categoryMap[cat.ID] = cat
	}
	c.appMap = make(map[string]*App, 2*len(c.Apps))
	for i := range c.Apps {
		a := &c.Apps[i]
		c.appMap[a.ID] = a
		c.appMap[a.Slug] = a
	}
}
