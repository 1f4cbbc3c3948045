package mock

import (
	"context"
	"io"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.SitemapParser = (*SitemapParser)(nil)

// SitemapParser is a mock implementation of sitecrawl.SitemapParser.
type SitemapParser struct {
	ParseFn func(r io.Reader) (*sitecrawl.SitemapNode, error)
}

func (p *SitemapParser) Parse(r io.Reader) (*sitecrawl.SitemapNode, error) {
	return p.ParseFn(r)
}

var _ sitecrawl.SitemapResolver = (*SitemapResolver)(nil)

// SitemapResolver is a mock implementation of sitecrawl.SitemapResolver.
type SitemapResolver struct {
	ResolveFn func(ctx context.Context, rootURL string) ([]string, error)
}

func (r *SitemapResolver) Resolve(ctx context.Context, rootURL string) ([]string, error) {
	return r.ResolveFn(ctx, rootURL)
}
