// Package source defines where catalog documents come from.
package source

import (
	"context"

	"github.com/starford/appcatalog/internal/outline"
)

// Document is one revision of a locale's catalog document, already reduced to outline nodes.
type Document struct {
	Locale   string
	Revision string
	Nodes    []outline.Node
}

// Provider is the interface for reading catalog documents.
type Provider interface {
	// Locales returns the configured locales in a stable order.
	Locales() []string
	// Revision returns an opaque marker that changes whenever the locale's document changes.
	Revision(ctx context.Context, locale string) (string, error)
	// Load reads and parses the locale's document.
	Load(ctx context.Context, locale string) (*Document, error)
}
