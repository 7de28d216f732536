// Package htmlsanitize strips markup from user-supplied free text before it
// is validated and stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag; script and style bodies are dropped entirely.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML removed and surrounding space trimmed.
// Entities escaped by the policy are decoded again so "Q&A" stays "Q&A".
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// PlainTextAll applies PlainText to each entry and drops the ones that end up
// empty. Order is preserved.
func PlainTextAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := PlainText(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}
