package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and splits", "VS Code Editor", []string{"vs", "code", "editor"}},
		{"punctuation runs collapse", "A powerful, text-editor!!! for devs...", []string{"powerful", "text", "editor", "for", "devs"}},
		{"single rune tokens dropped", "a b c go", []string{"go"}},
		{"underscore is a word char", "snake_case x", []string{"snake_case"}},
		{"digits kept", "Python 3 and 2to3", []string{"python", "and", "2to3"}},
		{"unicode letters kept", "Éditeur de texte", []string{"éditeur", "de", "texte"}},
		{"empty", "", []string{}},
		{"only separators", " -- !! ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnique(t *testing.T) {
	t.Parallel()

	got := Unique("Code Editor", "An editor for code", "Editors")
	assert.Equal(t, []string{"code", "editor", "an", "for", "editors"}, got)
}
