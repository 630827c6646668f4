// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes app catalog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/appcatalog/internal/apperr"
	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/query"
)

const formatResourceURI = "appcatalog://source-format"

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *query.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *query.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"App Catalog",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_apps",
		mcp.WithDescription("Ranked search over app names, descriptions and categories. "+
			"Returns one page of results; suggestions are included when nothing matches."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Results per page, 1-50 (default 20)")),
		mcp.WithString("locale", mcp.Description("Catalog locale (default locale when empty)")),
	), s.searchApps)

	s.mcp.AddTool(mcp.NewTool("get_app",
		mcp.WithDescription("Get the full record of one app by id or slug."),
		mcp.WithString("key", mcp.Required(), mcp.Description("App id (e.g. editors--vs-code) or slug (e.g. vs-code)")),
		mcp.WithString("locale", mcp.Description("Catalog locale")),
	), s.getApp)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List main categories and subcategories with their ids and app counts."),
		mcp.WithString("locale", mcp.Description("Catalog locale")),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("filter_apps",
		mcp.WithDescription("List apps matching every given criterion. A category id also "+
			"matches apps in its subcategories."),
		mcp.WithBoolean("free", mcp.Description("Freeware apps only (true) or non-free only (false)")),
		mcp.WithBoolean("open_source", mcp.Description("Open-source apps only (true) or closed only (false)")),
		mcp.WithBoolean("app_store", mcp.Description("App Store apps only (true) or others only (false)")),
		mcp.WithString("category", mcp.Description("Category id")),
		mcp.WithNumber("page", mcp.Description("1-based page number (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Results per page, 1-50 (default 20)")),
		mcp.WithString("locale", mcp.Description("Catalog locale")),
	), s.filterApps)

	s.mcp.AddTool(mcp.NewTool("get_catalog_format",
		mcp.WithDescription("Returns the Markdown layout the catalog is built from. "+
			"Call this before proposing new entries."),
	), s.getCatalogFormat)

	// Resource: source format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "Catalog Source Format",
			mcp.WithResourceDescription("Markdown layout of the catalog source document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchApps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.svc.Search(ctx, query.Request{
		Query:  q,
		Page:   req.GetInt("page", 0),
		Limit:  req.GetInt("limit", 0),
		Locale: req.GetString("locale", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(resp)
}

func (s *Server) getApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.App(ctx, req.GetString("locale", ""), key)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(a)
}

type categoryLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	ParentID string `json:"parentId,omitempty"`
	Apps     int    `json:"apps"`
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := s.svc.Catalog(ctx, req.GetString("locale", ""))
	if err != nil {
		return toolError(err), nil
	}
	all := cat.AllCategories()
	lines := make([]categoryLine, 0, len(all))
	for _, c := range all {
		lines = append(lines, categoryLine{ID: c.ID, Name: c.Name, Depth: c.Depth, ParentID: c.ParentID, Apps: c.AppCount()})
	}
	return jsonResult(lines)
}

func (s *Server) filterApps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	f := catalog.Filter{
		IsFree:       optionalBool(args, "free"),
		IsOpenSource: optionalBool(args, "open_source"),
		IsAppStore:   optionalBool(args, "app_store"),
		CategoryID:   req.GetString("category", ""),
	}
	page, err := s.svc.Filter(ctx, req.GetString("locale", ""), f, req.GetInt("page", 0), req.GetInt("limit", 0))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(page)
}

func (s *Server) getCatalogFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CatalogFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     CatalogFormatContract,
		},
	}, nil
}

func optionalBool(args map[string]any, key string) *bool {
	v, ok := args[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrSourceUnavailable):
		return mcp.NewToolResultError(fmt.Sprintf("catalog unavailable, retry in %s", apperr.RetryAfter(err)))
	}
	return mcp.NewToolResultError(err.Error())
}
