package crawl_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/etree"
	"github.com/fwojciec/sitecrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// siteFetcher serves canned bodies by URL and records every request.
type siteFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *siteFetcher) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*sitecrawl.Response, error) {
			f.mu.Lock()
			f.calls = append(f.calls, url)
			f.mu.Unlock()

			body, ok := f.pages[url]
			if !ok {
				return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchHTTPError, URL: url, Status: 404}
			}
			return &sitecrawl.Response{URL: url, StatusCode: 200, Body: []byte(body)}, nil
		},
	}
}

func (f *siteFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func urlset(locs ...string) string {
	s := `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, l := range locs {
		s += "<url><loc>" + l + "</loc></url>"
	}
	return s + "</urlset>"
}

func sitemapIndex(locs ...string) string {
	s := `<?xml version="1.0" encoding="UTF-8"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for _, l := range locs {
		s += "<sitemap><loc>" + l + "</loc></sitemap>"
	}
	return s + "</sitemapindex>"
}

func newResolver(t *testing.T, f *siteFetcher) *crawl.Resolver {
	t.Helper()
	scope, err := sitecrawl.NewScope("https://example.com/")
	require.NoError(t, err)
	return &crawl.Resolver{
		Fetcher: f.fetcher(),
		Parser:  etree.NewSitemapParser(),
		Scope:   scope,
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("expands sitemap index into leaf pages", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": sitemapIndex("https://example.com/a.xml", "https://example.com/b.xml"),
			"https://example.com/a.xml":       urlset("https://example.com/p1", "https://example.com/p2"),
			"https://example.com/b.xml":       urlset("https://example.com/p3", "https://example.com/p4"),
		}}

		urls, err := newResolver(t, f).Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/p1",
			"https://example.com/p2",
			"https://example.com/p3",
			"https://example.com/p4",
		}, urls)
		assert.Len(t, f.requested(), 3)
	})

	t.Run("processes each sitemap once despite cycles", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": sitemapIndex("https://example.com/a.xml", "https://example.com/sitemap.xml"),
			"https://example.com/a.xml":       sitemapIndex("https://example.com/sitemap.xml", "https://example.com/b.xml", "https://example.com/b.xml"),
			"https://example.com/b.xml":       urlset("https://example.com/p1"),
		}}

		urls, err := newResolver(t, f).Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/p1"}, urls)
		assert.ElementsMatch(t, []string{
			"https://example.com/sitemap.xml",
			"https://example.com/a.xml",
			"https://example.com/b.xml",
		}, f.requested())
	})

	t.Run("deduplicates pages across sitemaps", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": sitemapIndex("https://example.com/a.xml", "https://example.com/b.xml"),
			"https://example.com/a.xml":       urlset("https://example.com/p1", "https://example.com/p2#top"),
			"https://example.com/b.xml":       urlset("https://example.com/p2", "https://example.com/p1"),
		}}

		urls, err := newResolver(t, f).Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/p1", "https://example.com/p2"}, urls)
	})

	t.Run("drops out-of-domain sitemaps and pages", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": sitemapIndex("https://cdn.other.com/a.xml", "https://example.com/b.xml"),
			"https://example.com/b.xml":       urlset("https://example.com/p1", "https://other.com/p2", "mailto:me@example.com"),
		}}

		urls, err := newResolver(t, f).Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/p1"}, urls)
		assert.NotContains(t, f.requested(), "https://cdn.other.com/a.xml")
	})

	t.Run("skips sitemaps that fail to fetch or parse", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": sitemapIndex("https://example.com/missing.xml", "https://example.com/broken.xml", "https://example.com/ok.xml"),
			"https://example.com/broken.xml":  "<html><body>oops</body></html>",
			"https://example.com/ok.xml":      urlset("https://example.com/p1"),
		}}

		urls, err := newResolver(t, f).Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/p1"}, urls)
	})

	t.Run("returns empty list when root sitemap is unreachable", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{}}

		urls, err := newResolver(t, f).Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.NotNil(t, urls)
		assert.Empty(t, urls)
	})

	t.Run("applies url filter to pages", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": urlset("https://example.com/docs/a", "https://example.com/blog/b", "https://example.com/docs/c"),
		}}
		r := newResolver(t, f)
		r.Filter = &sitecrawl.URLFilter{Include: []*regexp.Regexp{regexp.MustCompile(`/docs/`)}}

		urls, err := r.Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/docs/a", "https://example.com/docs/c"}, urls)
	})

	t.Run("waits on limiter before every fetch", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": sitemapIndex("https://example.com/a.xml"),
			"https://example.com/a.xml":       urlset("https://example.com/p1"),
		}}
		var waits int
		r := newResolver(t, f)
		r.Limiter = &mock.Limiter{WaitFn: func(context.Context) error {
			waits++
			return nil
		}}

		_, err := r.Resolve(context.Background(), "https://example.com/sitemap.xml")

		require.NoError(t, err)
		assert.Equal(t, 2, waits)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		f := &siteFetcher{pages: map[string]string{
			"https://example.com/sitemap.xml": urlset("https://example.com/p1"),
		}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newResolver(t, f).Resolve(ctx, "https://example.com/sitemap.xml")

		assert.True(t, errors.Is(err, context.Canceled))
		assert.Empty(t, f.requested())
	})
}
