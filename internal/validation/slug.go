// Package validation provides input validation utilities.
package validation

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe identifier from a post title. The result is
// deterministic: lowercase ASCII letters, digits and single hyphens, with no
// leading or trailing hyphen. Calling Slugify twice on the same title always
// yields the same slug.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-', r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		default:
			// drop everything else (punctuation, symbols, non-ASCII)
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
