// Package goquery provides HTML content extraction using goquery.
package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitecrawl"
	"golang.org/x/net/html"
)

// noiseSelector matches elements whose content never reaches the output.
const noiseSelector = "script, style, header, footer, nav, noscript"

var blankLines = regexp.MustCompile(`\n\s*\n`)

// Ensure Extractor implements sitecrawl.Extractor.
var _ sitecrawl.Extractor = (*Extractor)(nil)

// Extractor linearizes page markup into text and collects the page's links.
type Extractor struct {
	scope *sitecrawl.Scope
}

// NewExtractor returns an Extractor that keeps only links inside scope.
// A nil scope keeps every http(s) link.
func NewExtractor(scope *sitecrawl.Scope) *Extractor {
	return &Extractor{scope: scope}
}

// Extract parses markup and returns its cleaned text, title, links and
// body HTML. Noise elements are removed before any of them is computed.
func (e *Extractor) Extract(markup, sourceURL string) (*sitecrawl.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find(noiseSelector).Remove()

	fragments := visibleText(doc)
	fragments = append(fragments, tagged(doc)...)
	text := strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(fragments, "\n"), "\n"))

	body, err := doc.Find("body").First().Html()
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINTERNAL, "failed to render body: %v", err)
	}

	return &sitecrawl.Extraction{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Text:        text,
		Links:       e.links(doc, sourceURL),
		ContentHTML: strings.TrimSpace(body),
	}, nil
}

// visibleText returns every non-blank text node of the document, trimmed,
// in document order. Comments and doctypes are not text nodes.
func visibleText(doc *goquery.Document) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return out
}

// tagged returns the bracket-tagged attribute and form fragments, grouped
// by tag in a fixed order and in document order within each group.
func tagged(doc *goquery.Document) []string {
	var out []string
	add := func(tag, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, "["+tag+": "+value+"]")
		}
	}

	doc.Find("img[alt]").Each(func(_ int, s *goquery.Selection) {
		add("ALT", s.AttrOr("alt", ""))
	})
	doc.Find("[title]").Each(func(_ int, s *goquery.Selection) {
		add("TITLE", s.AttrOr("title", ""))
	})
	doc.Find("input[value]").Each(func(_ int, s *goquery.Selection) {
		add("INPUT_VALUE", s.AttrOr("value", ""))
	})
	doc.Find("textarea").Each(func(_ int, s *goquery.Selection) {
		add("TEXTAREA", soleString(s.Get(0)))
	})
	doc.Find("option").Each(func(_ int, s *goquery.Selection) {
		add("OPTION", soleString(s.Get(0)))
	})
	return out
}

// soleString returns the text of n when n has exactly one child and that
// child is, or itself solely contains, a text node. Otherwise it returns "".
func soleString(n *html.Node) string {
	for n != nil {
		c := n.FirstChild
		if c == nil || c.NextSibling != nil {
			return ""
		}
		if c.Type == html.TextNode {
			return c.Data
		}
		if c.Type != html.ElementNode {
			return ""
		}
		n = c
	}
	return ""
}

// links returns the normalized in-scope targets of every a[href], first
// occurrence first. References that do not normalize are dropped.
func (e *Extractor) links(doc *goquery.Document, sourceURL string) []string {
	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if isNonHTTPLink(href) {
			return
		}
		u, err := sitecrawl.NormalizeURL(href, sourceURL)
		if err != nil {
			return
		}
		if e.scope != nil && !e.scope.Contains(u) {
			return
		}
		if seen[u] {
			return
		}
		seen[u] = true
		links = append(links, u)
	})
	return links
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
