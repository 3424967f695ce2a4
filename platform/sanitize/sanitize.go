// Package sanitize cleans user-provided text before it is stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	inlineSpace     = regexp.MustCompile(`[ \t\f\v]+`)
	extraBlankLines = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes HTML tags, including tags hidden behind entities, and
// trims the result.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML from multi-line input such as remarks. Line endings become
// \n, runs of spaces or tabs collapse to one space, lines are trimmed and at
// most one blank line is kept between paragraphs.
func Text(s string) string {
	s = strings.ReplaceAll(StripHTML(s), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	s = extraBlankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}

// Line strips HTML from single-line input such as a status label and
// collapses every whitespace run, newlines included, to one space.
func Line(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}
