package room

import (
	"strings"
	"unicode"
)

// isBlank reports whether the content is empty or whitespace-only.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// sanitizeContent strips control characters and the markup delimiters used
// for injection, keeping newlines and tabs, and trims surrounding whitespace.
func sanitizeContent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
			// dropped
		case r == '<' || r == '>':
			// dropped: markup injection
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
