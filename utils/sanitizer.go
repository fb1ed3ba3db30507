package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans HTML coming from remote feeds. Policies are immutable after
// construction, so one Sanitizer can be shared between goroutines.
type Sanitizer struct {
	content *bluemonday.Policy
	text    *bluemonday.Policy
}

// NewSanitizer creates a sanitizer for article bodies and plain-text fields
func NewSanitizer() *Sanitizer {
	content := bluemonday.UGCPolicy()
	content.RequireNoFollowOnLinks(true)
	content.AddTargetBlankToFullyQualifiedLinks(true)
	content.AllowAttrs("dir").Globally()

	return &Sanitizer{
		content: content,
		text:    bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML strips scripts, frames and unsafe attributes from article HTML
func (s *Sanitizer) SanitizeHTML(content string) string {
	if content == "" {
		return ""
	}
	return strings.TrimSpace(s.content.Sanitize(content))
}

// StripTags removes all markup, unescapes entities and collapses whitespace.
// Used for titles and author names, which Feedly sometimes delivers as HTML.
func (s *Sanitizer) StripTags(content string) string {
	if content == "" {
		return ""
	}
	stripped := html.UnescapeString(s.text.Sanitize(content))
	return strings.Join(strings.Fields(stripped), " ")
}
