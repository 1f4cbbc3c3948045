package sitecrawl

import (
	"context"
	"fmt"
	"io"
	"regexp"
)

// SitemapKind distinguishes page sitemaps from sitemap indexes.
type SitemapKind int

// Sitemap document kinds.
const (
	SitemapLeaf SitemapKind = iota
	SitemapIndex
)

// SitemapNode is a parsed sitemap document. A leaf lists page URLs; an
// index lists child sitemap URLs to resolve.
type SitemapNode struct {
	Kind SitemapKind
	URLs []string
}

// SitemapParser parses a sitemap document.
type SitemapParser interface {
	// Parse reads a sitemap or sitemap index document.
	// Returns *SitemapParseError if the document is empty or malformed.
	Parse(r io.Reader) (*SitemapNode, error)
}

// SitemapParseError reports a sitemap document that could not be parsed.
type SitemapParseError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *SitemapParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("parse sitemap: %v", e.Err)
	}
	return fmt.Sprintf("parse sitemap %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *SitemapParseError) Unwrap() error {
	return e.Err
}

// SitemapResolver expands a sitemap tree into page URLs.
type SitemapResolver interface {
	// Resolve returns the distinct in-scope page URLs reachable from the
	// root sitemap, following sitemap indexes. Individual sitemap failures
	// are skipped; only context cancellation is returned as an error.
	Resolve(ctx context.Context, rootURL string) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// NewURLFilter compiles include and exclude patterns into a URLFilter.
// Returns nil if both lists are empty.
func NewURLFilter(include, exclude []string) (*URLFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	f := &URLFilter{}
	for _, p := range include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", p, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, p := range exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}
