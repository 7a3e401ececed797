// Package security cleans user-supplied HTML before it is stored.
package security

import (
	"html"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer holds two allow-list policies: one for post bodies, which may
// carry basic formatting, and one for plain-text fields.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewSanitizer builds the policies once; both are safe for concurrent use.
//
// Post bodies keep paragraphs, lists, quotes, code, emphasis, headings,
// links and https images. Links open in a new tab with noopener noreferrer.
// script, style and iframe elements and every on* attribute are dropped.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "h2", "h3", "h4",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(*url.URL) bool { return true })

	return &Sanitizer{
		rich:  p,
		plain: bluemonday.StrictPolicy(),
	}
}

// HTML sanitises a post body.
func (s *Sanitizer) HTML(raw string) string {
	return s.rich.Sanitize(raw)
}

// Text strips every tag, for fields stored as plain text. The policy
// escapes what it keeps, so entities are decoded again: "Q&A" stays "Q&A".
// Callers that render the result as HTML must escape it themselves.
func (s *Sanitizer) Text(raw string) string {
	return html.UnescapeString(s.plain.Sanitize(raw))
}
