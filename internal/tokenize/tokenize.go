// Package tokenize splits free text into comparable lowercase word tokens.
package tokenize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Tokenize lowercases text, collapses every run of non-word characters into a
// single space, splits on whitespace and drops tokens shorter than two runes.
// Duplicates are preserved in input order.
func Tokenize(text string) []string {
	normalized := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(normalized)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// Unique returns the deduplicated union of the tokens of every text, in first-seen order.
func Unique(texts ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}
