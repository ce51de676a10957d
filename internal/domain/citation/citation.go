// Package citation describes grounding sources returned with a model answer.
package citation

import "strings"

// Kind tells which grounding source produced a citation.
type Kind string

const (
	// Web is a web search result.
	Web Kind = "web"
	// Maps is a maps place result.
	Maps Kind = "maps"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == Web || k == Maps
}

// Citation is one grounding source. URI and Title are optional.
type Citation struct {
	Kind  Kind   `json:"source_kind"`
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// New builds a citation, returning false when neither uri nor title is present.
func New(kind Kind, uri, title string) (Citation, bool) {
	uri = strings.TrimSpace(uri)
	title = strings.TrimSpace(title)
	if !kind.IsValid() || (uri == "" && title == "") {
		return Citation{}, false
	}
	return Citation{Kind: kind, URI: uri, Title: title}, true
}

// DisplayTitle returns the title, falling back to the URI.
func (c Citation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.URI
}

// Linkable reports whether the URI is safe to render as a link.
func (c Citation) Linkable() bool {
	return IsSafeURL(c.URI)
}

// IsSafeURL returns true if the URL uses http or https scheme.
func IsSafeURL(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
