package api

import (
	"github.com/starford/appcatalog/internal/analytics"
	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/query"
)

// SearchResponse is the search response (aliased from the query layer).
type SearchResponse = query.Response

// AppPage is one page of filtered apps (aliased from the query layer).
type AppPage = query.AppPage

// App is the full app record (aliased from the catalog layer).
type App = catalog.App

// QueryCount is one popular query (aliased from the analytics layer).
type QueryCount = analytics.QueryCount

// CategoryNode is a category without its apps, used by the category tree.
type CategoryNode struct {
	ID            string         `json:"id" example:"editors" validate:"required"`
	Slug          string         `json:"slug" example:"editors" validate:"required"`
	Name          string         `json:"name" example:"Editors" validate:"required"`
	Description   string         `json:"description,omitempty" example:"Programs for writing text and code."`
	Depth         int            `json:"depth" example:"2" validate:"required"`
	ParentID      string         `json:"parentId,omitempty" example:""`
	AppCount      int            `json:"appCount" example:"12" validate:"required"`
	Subcategories []CategoryNode `json:"subcategories,omitempty"`
}

func categoryNode(c *catalog.Category) CategoryNode {
	n := CategoryNode{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		Depth:       c.Depth,
		ParentID:    c.ParentID,
		AppCount:    c.AppCount(),
	}
	for _, sub := range c.Subcategories {
		n.Subcategories = append(n.Subcategories, categoryNode(sub))
	}
	return n
}

// CategoryTreeResponse wraps the category tree.
type CategoryTreeResponse struct {
	Locale     string         `json:"locale" example:"en" validate:"required"`
	Revision   string         `json:"revision" validate:"required"`
	Stats      catalog.Stats  `json:"stats" validate:"required"`
	Categories []CategoryNode `json:"categories" validate:"required"`
}

// ReloadResult reports the outcome of reloading one locale.
type ReloadResult struct {
	Locale   string `json:"locale" example:"en" validate:"required"`
	Revision string `json:"revision,omitempty"`
	Apps     int    `json:"apps"`
	Error    string `json:"error,omitempty"`
}

// ReloadResponse wraps per-locale reload results.
type ReloadResponse struct {
	Results []ReloadResult `json:"results" validate:"required"`
}

// TopQueriesResponse wraps the popular-queries report.
type TopQueriesResponse struct {
	Since   string       `json:"since" example:"24h0m0s" validate:"required"`
	Queries []QueryCount `json:"queries" validate:"required"`
}
