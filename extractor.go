package sitecrawl

// Extraction holds the content extracted from a fetched page.
type Extraction struct {
	// Title is the text of the document's <title> element.
	Title string

	// Text is the cleaned, linearized visible text of the page followed by
	// the bracket-tagged attribute fragments ([ALT: ...], [TITLE: ...], ...).
	Text string

	// Links are the normalized, in-scope outbound links in document order.
	Links []string

	// ContentHTML is the page body with non-content elements removed.
	ContentHTML string
}

// Extractor converts page markup into text and outbound links.
type Extractor interface {
	// Extract parses markup fetched from sourceURL. Relative links are
	// resolved against sourceURL. Implementations must not have side effects.
	Extract(markup string, sourceURL string) (*Extraction, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown. Relative links and
	// images are made absolute using pageURL.
	Convert(html string, pageURL string) (string, error)
}
