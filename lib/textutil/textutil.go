package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseWhitespace folds any whitespace run into a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// TruncateRunes cuts s after n runes. Scraped text is UTF-8 with
// accented characters, so byte slicing would split codepoints.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	filenameSeparators  = regexp.MustCompile(`[-\s]+`)
)

// SanitizeFilename derives a stable filename fragment from free text:
// drops punctuation, caps at 50 runes, folds spaces and hyphens into
// underscores.
func SanitizeFilename(s string) string {
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	s = TruncateRunes(s, 50)
	return filenameSeparators.ReplaceAllString(s, "_")
}
