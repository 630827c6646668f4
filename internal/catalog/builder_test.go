package catalog_test

import (
	"testing"

	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(title, url, text string, icons ...outline.IconType) outline.ListItem {
	mark := &outline.Mark{Title: title, URL: url}
	for _, typ := range icons {
		mark.Icons = append(mark.Icons, outline.Icon{Type: typ, URL: "https://example.com/" + string(typ)})
	}
	return outline.ListItem{
		Mark: mark,
		Parts: []outline.Part{
			{Kind: outline.PartLink, Text: title},
			{Kind: outline.PartText, Text: text},
		},
	}
}

func fixture() []outline.Node {
	deleted := item("Atom", "https://atom.io", " - Gone.")
	deleted.Mark.Deleted = true

	return []outline.Node{
		outline.Heading{Depth: 2, Text: "Editors"},
		outline.Description{Emphasis: "Text editors."},
		outline.AppList{Items: []outline.ListItem{
			item("VS Code", "https://code.visualstudio.com", " - A powerful text editor for developers. ", outline.IconOSS, outline.IconFreeware),
			deleted,
			{Mark: nil},
			item("  ", "https://blank.example", ""),
			item("No URL", "", ""),
		}},
		outline.Heading{Depth: 3, Text: "Markdown"},
		outline.Description{Emphasis: "Markdown editors."},
		outline.AppList{Items: []outline.ListItem{
			item("Typora", "https://typora.io", " - Minimal Markdown editor.", outline.IconAppStore, outline.IconAwesomeList),
		}},
		outline.Heading{Depth: 2, Text: "Browsers"},
		outline.AppList{Items: []outline.ListItem{
			item("Firefox", "https://firefox.com", " - Browser.", outline.IconOSS),
		}},
	}
}

func TestBuild_MainCategoryApp(t *testing.T) {
	t.Parallel()

	c := catalog.Build(fixture())

	vscode, ok := c.App("editors--vs-code")
	require.True(t, ok)
	assert.Equal(t, "VS Code", vscode.Name)
	assert.Equal(t, "vs-code", vscode.Slug)
	assert.Equal(t, "A powerful text editor for developers.", vscode.Description)
	assert.True(t, vscode.IsFree)
	assert.True(t, vscode.IsOpenSource)
	assert.False(t, vscode.IsAppStore)
	assert.Equal(t, "https://example.com/oss", vscode.OSSURL)
	assert.Equal(t, "Editors", vscode.CategoryName)
	assert.Equal(t, "editors", vscode.CategoryID)
	assert.Empty(t, vscode.ParentCategoryID)
	assert.Empty(t, vscode.ParentCategoryName)
}

func TestBuild_Tree(t *testing.T) {
	t.Parallel()

	c := catalog.Build(fixture())
	require.Len(t, c.Categories, 2)

	editors := c.Categories[0]
	assert.Equal(t, "editors", editors.ID)
	assert.Equal(t, "Text editors.", editors.Description)
	assert.Equal(t, catalog.DepthMain, editors.Depth)
	assert.Empty(t, editors.ParentID)
	require.Len(t, editors.Subcategories, 1)

	md := editors.Subcategories[0]
	assert.Equal(t, "editors--markdown", md.ID)
	assert.Equal(t, "markdown", md.Slug)
	assert.Equal(t, "Markdown editors.", md.Description)
	assert.Equal(t, catalog.DepthSub, md.Depth)
	assert.Equal(t, "editors", md.ParentID)
	assert.Equal(t, "Editors", md.ParentName)

	assert.Equal(t, 2, editors.AppCount())
	assert.Empty(t, c.Categories[1].Subcategories)

	got, ok := c.Category("editors--markdown")
	require.True(t, ok)
	assert.Same(t, md, got)
	assert.Len(t, c.AllCategories(), 3)
}

func TestBuild_SubcategoryLinkage(t *testing.T) {
	t.Parallel()

	c := catalog.Build(fixture())

	for _, a := range c.Apps {
		cat, ok := c.Category(a.CategoryID)
		require.True(t, ok, a.ID)
		if cat.Depth == catalog.DepthSub {
			assert.Equal(t, cat.ParentID, a.ParentCategoryID, a.ID)
			assert.Equal(t, cat.ParentName, a.ParentCategoryName, a.ID)
		} else {
			assert.Empty(t, a.ParentCategoryID, a.ID)
		}
	}

	typora, ok := c.App("typora")
	require.True(t, ok)
	assert.Equal(t, "editors--markdown", typora.CategoryID)
	assert.Equal(t, "editors", typora.ParentCategoryID)
	assert.True(t, typora.IsAppStore)
	assert.True(t, typora.HasAwesomeList)
	assert.Equal(t, "https://example.com/app-store", typora.AppStoreURL)
	assert.Equal(t, "https://example.com/awesome-list", typora.AwesomeListURL)
}

func TestBuild_SkipsDeletedAndMalformedItems(t *testing.T) {
	t.Parallel()

	c := catalog.Build(fixture())

	names := make([]string, 0, len(c.Apps))
	for _, a := range c.Apps {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"VS Code", "Typora", "Firefox"}, names)

	for _, cat := range c.AllCategories() {
		for _, a := range cat.Apps {
			assert.NotEqual(t, "Atom", a.Name)
		}
	}
	_, ok := c.App("atom")
	assert.False(t, ok)

	reasons := make([]catalog.SkipReason, 0, len(c.Skipped))
	for _, s := range c.Skipped {
		reasons = append(reasons, s.Reason)
	}
	assert.Equal(t, []catalog.SkipReason{
		catalog.SkipDeleted,
		catalog.SkipNoMark,
		catalog.SkipMissingTitle,
		catalog.SkipMissingURL,
	}, reasons)

	assert.Equal(t, catalog.Stats{Categories: 2, Subcategories: 1, Apps: 3, Skipped: 4}, c.Stats())
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	a := catalog.Build(fixture())
	b := catalog.Build(fixture())
	assert.Equal(t, a, b)
}

func TestBuild_OrphanNodes(t *testing.T) {
	t.Parallel()

	c := catalog.Build([]outline.Node{
		outline.Description{Emphasis: "Nobody owns this."},
		outline.AppList{Items: []outline.ListItem{item("Loose", "https://loose.example", "")}},
		outline.Heading{Depth: 3, Text: "Orphan"},
		outline.AppList{Items: []outline.ListItem{item("Also Loose", "https://also.example", "")}},
		outline.Heading{Depth: 2, Text: "Home"},
		outline.AppList{Items: []outline.ListItem{item("Placed", "https://placed.example", "")}},
	})

	require.Len(t, c.Categories, 1)
	require.Len(t, c.Apps, 1)
	assert.Equal(t, "Placed", c.Apps[0].Name)
	assert.Empty(t, c.Categories[0].Subcategories)

	reasons := make([]catalog.SkipReason, 0, len(c.Skipped))
	for _, s := range c.Skipped {
		reasons = append(reasons, s.Reason)
	}
	assert.Equal(t, []catalog.SkipReason{
		catalog.SkipOrphanDescription,
		catalog.SkipNoCategory,
		catalog.SkipOrphanSubcategory,
		catalog.SkipNoCategory,
	}, reasons)
}

func TestBuild_FirstDescriptionWins(t *testing.T) {
	t.Parallel()

	c := catalog.Build([]outline.Node{
		outline.Heading{Depth: 2, Text: "Utilities"},
		outline.Description{Emphasis: "First."},
		outline.Description{Emphasis: "Second."},
	})
	assert.Equal(t, "First.", c.Categories[0].Description)
}

func TestBuild_SlugCollisionLastWins(t *testing.T) {
	t.Parallel()

	c := catalog.Build([]outline.Node{
		outline.Heading{Depth: 2, Text: "Editors"},
		outline.AppList{Items: []outline.ListItem{item("Notes", "https://a.example", "")}},
		outline.Heading{Depth: 2, Text: "Productivity"},
		outline.AppList{Items: []outline.ListItem{item("Notes", "https://b.example", "")}},
	})

	require.Len(t, c.Apps, 2)
	bySlug, ok := c.App("notes")
	require.True(t, ok)
	assert.Equal(t, "https://b.example", bySlug.URL)

	first, ok := c.App("editors--notes")
	require.True(t, ok)
	assert.Equal(t, "https://a.example", first.URL)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	c := catalog.Build(nil)
	assert.NotNil(t, c.Apps)
	assert.NotNil(t, c.Categories)
	assert.Empty(t, c.AllCategories())
	_, ok := c.App("anything")
	assert.False(t, ok)
}

func TestBuild_FromMarkdown(t *testing.T) {
	t.Parallel()

	doc := `## Editors

- [VS Code](https://code.visualstudio.com/) - A powerful text editor for developers. [![Open-Source Software][OSS Icon]](https://github.com/microsoft/vscode) ![Freeware][Freeware Icon]
- ~~[Atom](https://atom.io)~~ - Discontinued.

[OSS Icon]: ./oss.svg
[Freeware Icon]: ./freeware.svg
`
	c := catalog.Build(outline.Parse([]byte(doc)))

	require.Len(t, c.Apps, 1)
	a := c.Apps[0]
	assert.Equal(t, "VS Code", a.Name)
	assert.Equal(t, "A powerful text editor for developers.", a.Description)
	assert.True(t, a.IsFree)
	assert.True(t, a.IsOpenSource)
	assert.False(t, a.IsAppStore)
	assert.Equal(t, "Editors", a.CategoryName)
	assert.Empty(t, a.ParentCategoryID)
}
