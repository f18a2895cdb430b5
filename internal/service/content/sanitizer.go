// Package content cleans admin-supplied article HTML before it is stored.
package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips executable markup from article bodies
type Sanitizer interface {
	// Sanitize removes scripts, frames, embeds, event handler attributes and
	// javascript: URLs while keeping ordinary formatting. Empty input yields
	// empty output and the result is stable when sanitized again.
	Sanitize(raw string) string
}

type sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a sanitizer on bluemonday's user generated content
// policy, which already refuses script, iframe, object and embed elements
// and every on* attribute.
func NewSanitizer() Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.RequireNoFollowOnLinks(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &sanitizer{policy: p}
}

func (s *sanitizer) Sanitize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return s.policy.Sanitize(raw)
}
