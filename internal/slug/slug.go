// Package slug derives URL-safe output file names from note titles.
package slug

import (
	"regexp"
	"strings"
)

var (
	specialRe   = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	hyphenRunRe = regexp.MustCompile(`-+`)
)

// Make converts a title into a lowercase hyphenated slug: special
// characters are dropped, surrounding whitespace is trimmed, spaces become
// hyphens, and hyphen runs collapse to one.
func Make(title string) string {
	s := specialRe.ReplaceAllString(title, "")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// Filename returns the Markdown file name for a title.
func Filename(title string) string {
	return Make(title) + ".md"
}
