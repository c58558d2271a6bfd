package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips every HTML tag and returns plain text. Entities are
// decoded again so "&" and "<" typed by users survive as characters.
func SanitizeText(input string) string {
	return html.UnescapeString(sanitizer.Sanitize(input))
}

// SanitizeLine is SanitizeText plus surrounding whitespace removal.
func SanitizeLine(input string) string {
	return strings.TrimSpace(SanitizeText(input))
}
