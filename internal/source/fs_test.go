package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/appcatalog/internal/apperr"
	"github.com/starford/appcatalog/internal/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFS_LoadParsesDocument(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "README.md")
	writeDoc(t, p, "## Editors\n\n- [VS Code](https://code.visualstudio.com)\n")

	fs, err := NewFS(map[string]string{"en": p})
	require.NoError(t, err)

	doc, err := fs.Load(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, "en", doc.Locale)
	assert.NotEmpty(t, doc.Revision)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, outline.Heading{Depth: 2, Text: "Editors"}, doc.Nodes[0])

	rev, err := fs.Revision(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, doc.Revision, rev)
}

func TestFS_RevisionChangesOnWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "README.md")
	writeDoc(t, p, "## A\n")

	fs, err := NewFS(map[string]string{"en": p})
	require.NoError(t, err)
	before, err := fs.Revision(context.Background(), "en")
	require.NoError(t, err)

	writeDoc(t, p, "## A\n## B\n")
	later := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(p, later, later))

	after, err := fs.Revision(context.Background(), "en")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestFS_MissingFileIsUnavailable(t *testing.T) {
	fs, err := NewFS(map[string]string{"en": filepath.Join(t.TempDir(), "missing.md")})
	require.NoError(t, err)

	_, err = fs.Revision(context.Background(), "en")
	assert.ErrorIs(t, err, apperr.ErrSourceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = fs.Load(context.Background(), "en")
	assert.ErrorIs(t, err, apperr.ErrSourceUnavailable)
}

func TestFS_UnknownLocaleAndDirectory(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(map[string]string{"en": dir})
	require.NoError(t, err)

	_, err = fs.Revision(context.Background(), "en")
	assert.ErrorIs(t, err, apperr.ErrSourceUnavailable)

	_, err = fs.Load(context.Background(), "fr")
	assert.ErrorIs(t, err, apperr.ErrSourceUnavailable)
}

func TestFS_IgnoredSectionsApplied(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "README.md")
	writeDoc(t, p, "## Contents\n\n- [Editors](#editors)\n\n## Editors\n")

	fs, err := NewFS(map[string]string{"en": p}, outline.WithIgnoredSections("Contents"))
	require.NoError(t, err)

	doc, err := fs.Load(context.Background(), "en")
	require.NoError(t, err)
	assert.Equal(t, []outline.Node{outline.Heading{Depth: 2, Text: "Editors"}}, doc.Nodes)
}

func TestNewFS_Validation(t *testing.T) {
	_, err := NewFS(nil)
	assert.Error(t, err)

	_, err = NewFS(map[string]string{"": "x.md"})
	assert.Error(t, err)

	fs, err := NewFS(map[string]string{"zh": "b.md", "en": "a.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "zh"}, fs.Locales())
	p, ok := fs.Path("en")
	assert.True(t, ok)
	assert.True(t, filepath.IsAbs(p))
}

func TestFS_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fs, err := NewFS(map[string]string{"en": "a.md"})
	require.NoError(t, err)
	_, err = fs.Load(ctx, "en")
	assert.ErrorIs(t, err, context.Canceled)
}
