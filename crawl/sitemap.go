package crawl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/fwojciec/sitecrawl"
)

// Ensure Resolver implements sitecrawl.SitemapResolver.
var _ sitecrawl.SitemapResolver = (*Resolver)(nil)

// Resolver expands a sitemap tree into page URLs. Sitemap indexes are
// walked breadth-first with an explicit work queue, so arbitrarily deep or
// cyclic index chains terminate.
type Resolver struct {
	Fetcher sitecrawl.Fetcher
	Parser  sitecrawl.SitemapParser

	// Limiter, if set, is waited on before every sitemap fetch.
	Limiter sitecrawl.Limiter

	// Scope, if set, drops sitemap and page URLs outside the crawl domain.
	Scope *sitecrawl.Scope

	// Filter, if set, is applied to page URLs.
	Filter *sitecrawl.URLFilter

	Logger *slog.Logger
}

// Resolve returns the distinct page URLs reachable from rootURL in
// first-seen order. A sitemap that fails to fetch or parse is logged and
// skipped. Returns an error only if ctx is canceled.
func (r *Resolver) Resolve(ctx context.Context, rootURL string) ([]string, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	queue := []string{rootURL}
	queued := map[string]bool{rootURL: true}
	processed := make(map[string]bool)

	urls := []string{}
	seenURLs := make(map[string]bool)

	for len(queue) > 0 {
		sitemapURL := queue[0]
		queue = queue[1:]

		if processed[sitemapURL] {
			continue
		}
		processed[sitemapURL] = true

		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return urls, err
			}
		} else if err := ctx.Err(); err != nil {
			return urls, err
		}

		resp, err := r.Fetcher.Fetch(ctx, sitemapURL)
		if err != nil {
			if ctx.Err() != nil {
				return urls, ctx.Err()
			}
			logger.Warn("sitemap fetch failed", "url", sitemapURL, "error", err)
			continue
		}

		node, err := r.Parser.Parse(bytes.NewReader(resp.Body))
		if err != nil {
			logger.Warn("sitemap skipped", "url", sitemapURL, "error", parseError(sitemapURL, err))
			continue
		}

		switch node.Kind {
		case sitecrawl.SitemapIndex:
			for _, loc := range node.URLs {
				child, ok := r.inScope(loc, sitemapURL)
				if !ok || processed[child] || queued[child] {
					continue
				}
				queued[child] = true
				queue = append(queue, child)
				logger.Debug("discovered sub-sitemap", "url", child)
			}
		default:
			for _, loc := range node.URLs {
				page, ok := r.inScope(loc, sitemapURL)
				if !ok || seenURLs[page] || !r.Filter.Match(page) {
					continue
				}
				seenURLs[page] = true
				urls = append(urls, page)
			}
		}
	}

	logger.Info("sitemap resolved", "root", rootURL, "sitemaps", len(processed), "urls", len(urls))
	return urls, nil
}

// inScope normalizes loc against the sitemap it was listed in and reports
// whether it belongs to the crawl domain.
func (r *Resolver) inScope(loc, sitemapURL string) (string, bool) {
	u, err := sitecrawl.NormalizeURL(loc, sitemapURL)
	if err != nil {
		return "", false
	}
	if r.Scope != nil && !r.Scope.Contains(u) {
		return "", false
	}
	return u, true
}

// parseError attaches the sitemap URL to a parser failure.
func parseError(sitemapURL string, err error) error {
	var pe *sitecrawl.SitemapParseError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &sitecrawl.SitemapParseError{URL: sitemapURL, Err: err}
}
