package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/appcatalog/internal/apperr"
	"github.com/starford/appcatalog/internal/outline"
)

// FS implements Provider with one Markdown file per locale.
type FS struct {
	paths   map[string]string // locale -> absolute file path
	locales []string
	opts    []outline.Option
}

// NewFS creates a provider for the given locale -> path map. Files need not
// exist yet; a missing file makes that locale unavailable until it appears.
func NewFS(paths map[string]string, opts ...outline.Option) (*FS, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("source: no locales configured")
	}
	f := &FS{paths: make(map[string]string, len(paths)), opts: opts}
	for locale, p := range paths {
		if locale == "" || p == "" {
			return nil, fmt.Errorf("source: empty locale or path (%q: %q)", locale, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("source: resolve %s: %w", p, err)
		}
		f.paths[locale] = abs
		f.locales = append(f.locales, locale)
	}
	sort.Strings(f.locales)
	return f, nil
}

// Locales returns the configured locales sorted by name.
func (f *FS) Locales() []string {
	return append([]string(nil), f.locales...)
}

// Path returns the absolute document path for locale.
func (f *FS) Path(locale string) (string, bool) {
	p, ok := f.paths[locale]
	return p, ok
}

// Revision returns "<mtime-unixnano>-<size>" for the locale's document.
func (f *FS) Revision(ctx context.Context, locale string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := f.stat(locale)
	if err != nil {
		return "", err
	}
	return revisionOf(info), nil
}

// Load stats, reads and parses the locale's document.
func (f *FS) Load(ctx context.Context, locale string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := f.stat(locale)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.paths[locale])
	if err != nil {
		return nil, apperr.Unavailable(locale, fmt.Errorf("source: read: %w", err))
	}
	return &Document{
		Locale:   locale,
		Revision: revisionOf(info),
		Nodes:    outline.Parse(data, f.opts...),
	}, nil
}

func (f *FS) stat(locale string) (os.FileInfo, error) {
	p, ok := f.paths[locale]
	if !ok {
		return nil, apperr.Unavailable(locale, fmt.Errorf("source: unknown locale"))
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, apperr.Unavailable(locale, fmt.Errorf("source: stat: %w", err))
	}
	if info.IsDir() {
		return nil, apperr.Unavailable(locale, fmt.Errorf("source: %s is a directory", p))
	}
	return info, nil
}

func revisionOf(info os.FileInfo) string {
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
}
