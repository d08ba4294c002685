package utils

import "strings"

// CollapseWhitespace replaces every run of whitespace with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Snippet returns the first limit characters of the collapsed text followed by "...".
// The marker is appended even when nothing was cut.
func Snippet(s string, limit int) string {
	runes := []rune(CollapseWhitespace(s))
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}
