// Package etree parses sitemap documents using github.com/beevik/etree.
package etree

import (
	"errors"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/sitecrawl"
	"golang.org/x/net/html/charset"
)

// Ensure SitemapParser implements sitecrawl.SitemapParser.
var _ sitecrawl.SitemapParser = (*SitemapParser)(nil)

// SitemapParser parses <urlset> and <sitemapindex> documents. Element names
// are matched on their local part, so namespace prefixes are ignored.
type SitemapParser struct{}

// NewSitemapParser creates a new SitemapParser.
func NewSitemapParser() *SitemapParser {
	return &SitemapParser{}
}

// Parse reads a sitemap document and returns the <loc> values it lists.
// Documents declaring a non-UTF-8 encoding are transcoded.
func (p *SitemapParser) Parse(r io.Reader) (*sitecrawl.SitemapNode, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &sitecrawl.SitemapParseError{Err: err}
	}

	root := doc.Root()
	if root == nil {
		return nil, &sitecrawl.SitemapParseError{Err: errors.New("empty sitemap document")}
	}

	switch strings.ToLower(root.Tag) {
	case "sitemapindex":
		return &sitecrawl.SitemapNode{
			Kind: sitecrawl.SitemapIndex,
			URLs: locs(root, "sitemap"),
		}, nil
	case "urlset":
		return &sitecrawl.SitemapNode{
			Kind: sitecrawl.SitemapLeaf,
			URLs: locs(root, "url"),
		}, nil
	default:
		return nil, &sitecrawl.SitemapParseError{Err: errors.New("unrecognized root element <" + root.Tag + ">")}
	}
}

// locs returns the trimmed, non-empty <loc> text of every entry element.
func locs(root *etree.Element, entry string) []string {
	urls := []string{}
	for _, el := range root.SelectElements(entry) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
