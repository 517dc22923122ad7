// Package readme renders repository readme files to HTML for the catalog
// detail pages. Markdown goes through blackfriday; reStructuredText and
// plain text are escaped and wrapped, which keeps the output safe without
// pulling in an rst toolchain.
package readme

import (
	"html"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// Renderer dispatches on the readme file extension.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// HTML renders content according to the lower-cased file extension.
// Unknown extensions fall back to the plain-text renderer. Empty content
// yields an empty string.
func (r *Renderer) HTML(content, extension string) string {
	if content == "" {
		return ""
	}

	switch strings.ToLower(extension) {
	case ".md", ".markdown":
		return string(blackfriday.Run([]byte(content)))
	default:
		// ".rst", ".txt", "" and anything unrecognized.
		return renderText(content)
	}
}

// renderText escapes content and preserves its formatting.
func renderText(content string) string {
	return "<pre>" + html.EscapeString(content) + "</pre>"
}
