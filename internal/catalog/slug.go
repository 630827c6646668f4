package catalog

import (
	"strings"
	"unicode"

	"github.com/starford/appcatalog/internal/checksum"
)

// Slugify lowercases s, keeps letters and digits, and joins the remaining
// words with single hyphens. Names without any letter or digit fall back to
// a hash of the name so that the result is never empty.
func Slugify(s string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			prevHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == '/':
			if !prevHyphen && sb.Len() > 0 {
				sb.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.TrimSuffix(sb.String(), "-")
	if slug == "" {
		return "h" + checksum.SumString(strings.TrimSpace(s))
	}
	return slug
}

func joinID(parts ...string) string {
	return strings.Join(parts, "--")
}
