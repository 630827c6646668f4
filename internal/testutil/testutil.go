// Package testutil provides shared test helpers for setting up catalog sources and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/appcatalog/internal/source"
)

// SampleDoc is a small catalog document covering main categories, a
// subcategory, descriptions, icon badges and a struck-through entry.
const SampleDoc = `# Awesome Apps

## Editors

*Programs for writing text and code.*

- [VS Code](https://code.visualstudio.com) - A free code editor from Microsoft. [![Open-Source Software][oss icon]](https://github.com/microsoft/vscode) ![Freeware][freeware icon]
- [Sublime Text](https://www.sublimetext.com) - Sophisticated text editor.
- ~~[Atom](https://atom.io) - Retired hackable editor.~~

### Markdown

*Editors focused on Markdown.*

- [Typora](https://typora.io) - Minimal Markdown editor. ![App Store][app store icon] [![Awesome List][awesome list icon]](https://github.com/example/awesome-markdown)

## Browsers

- [Firefox](https://www.mozilla.org/firefox) - Free and open web browser. [![Open-Source Software][oss icon]](https://hg.mozilla.org) ![Freeware][freeware icon]

[oss icon]: ./icons/oss.png
[freeware icon]: ./icons/freeware.png
[app store icon]: ./icons/app-store.png
[awesome list icon]: ./icons/awesome-list.png
`

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestSource writes content as the "en" document in a temporary directory
// and returns its path together with a filesystem provider.
func TestSource(t *testing.T, content string) (string, *source.FS) {
	t.Helper()
	p := WriteFile(t, t.TempDir(), "README.md", content)
	fs, err := source.NewFS(map[string]string{"en": p})
	if err != nil {
		t.Fatal(err)
	}
	return p, fs
}

// TempDBPath returns a path for a temporary SQLite database that is removed on cleanup.
func TempDBPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "appcatalog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() {
		os.Remove(f.Name())
		os.Remove(f.Name() + "-wal")
		os.Remove(f.Name() + "-shm")
	})
	return f.Name()
}
