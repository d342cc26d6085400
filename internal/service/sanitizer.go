package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips script injection from user supplied text. Content keeps
// the user-generated-content subset of HTML; titles keep none.
type Sanitizer struct {
	content *bluemonday.Policy
	plain   *bluemonday.Policy
}

// NewSanitizer returns the sanitizer used by the post and comment services.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		content: bluemonday.UGCPolicy(),
		plain:   bluemonday.StrictPolicy(),
	}
}

// Content sanitizes post or comment bodies.
func (s *Sanitizer) Content(raw string) string {
	return strings.TrimSpace(s.content.Sanitize(raw))
}

// Plain removes every tag, used for titles. The result is plain text, not
// HTML: entities the strict policy escapes are decoded again.
func (s *Sanitizer) Plain(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(raw)))
}
