package driven

// ReadmeRenderer turns raw readme content into HTML, dispatching on the
// lower-cased file extension (".md", ".rst", ".txt" or ""). Rendering
// never fails; unrenderable input falls back to escaped plain text.
type ReadmeRenderer interface {
	HTML(content string, extension string) string
}
