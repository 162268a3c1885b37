package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace to single spaces.
func Normalize(s string) string {
	return strings.ToLower(CollapseSpace(s))
}

// CollapseSpace trims s and collapses internal whitespace runs to single spaces.
func CollapseSpace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// Preview returns the first n runes of text, with "..." appended when cut.
func Preview(text string, n int) string {
	if n <= 0 || CountChars(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}
