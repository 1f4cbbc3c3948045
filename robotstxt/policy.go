// Package robotstxt implements sitecrawl.RobotsPolicy using temoto/robotstxt.
package robotstxt

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/temoto/robotstxt"
)

// Ensure Policy implements sitecrawl.RobotsPolicy.
var _ sitecrawl.RobotsPolicy = (*Policy)(nil)

// Policy evaluates robots.txt rules for a single user agent. Each host's
// robots.txt is fetched at most once. Any failure to fetch or parse it
// allows everything.
type Policy struct {
	fetcher   sitecrawl.Fetcher
	limiter   sitecrawl.Limiter
	userAgent string
	logger    *slog.Logger

	mu    sync.Mutex
	hosts map[string]*hostRules
}

type hostRules struct {
	once sync.Once
	data *robotstxt.RobotsData
}

// Option configures a Policy.
type Option func(*Policy)

// WithLimiter makes every robots.txt fetch wait on limiter, so it counts
// against the same politeness budget as page and sitemap fetches.
func WithLimiter(limiter sitecrawl.Limiter) Option {
	return func(p *Policy) {
		p.limiter = limiter
	}
}

// NewPolicy creates a Policy that fetches robots.txt files with fetcher and
// matches rules for userAgent. A nil logger discards output.
func NewPolicy(fetcher sitecrawl.Fetcher, userAgent string, logger *slog.Logger, opts ...Option) *Policy {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Policy{
		fetcher:   fetcher,
		userAgent: userAgent,
		logger:    logger,
		hosts:     make(map[string]*hostRules),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CrawlDelay returns the Crawl-delay of the group matching the user agent,
// or zero when robots.txt is missing or states none.
func (p *Policy) CrawlDelay(ctx context.Context, siteURL string) time.Duration {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return 0
	}
	group := p.group(ctx, u)
	if group == nil {
		return 0
	}
	return group.CrawlDelay
}

// Allowed reports whether the user agent may fetch rawURL.
func (p *Policy) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	group := p.group(ctx, u)
	if group == nil {
		return true
	}
	return group.Test(u.RequestURI())
}

func (p *Policy) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	data := p.rules(ctx, u)
	if data == nil {
		return nil
	}
	// The most specific matching group wins, falling back to "*".
	return data.FindGroup(p.userAgent)
}

// rules returns the parsed robots.txt of u's host, fetching it on first use.
func (p *Policy) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(u.Host)

	p.mu.Lock()
	entry, ok := p.hosts[host]
	if !ok {
		entry = &hostRules{}
		p.hosts[host] = entry
	}
	p.mu.Unlock()

	entry.once.Do(func() {
		entry.data = p.load(ctx, u.Scheme+"://"+u.Host+"/robots.txt")
	})
	return entry.data
}

func (p *Policy) load(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.logger.Warn("robots.txt skipped", "url", robotsURL, "error", err)
			return nil
		}
	}
	resp, err := p.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		var fe *sitecrawl.FetchError
		if errors.As(err, &fe) && fe.Kind == sitecrawl.FetchHTTPError && fe.Status >= 400 && fe.Status < 500 {
			// A missing robots.txt allows everything.
			data, _ := robotstxt.FromStatusAndBytes(fe.Status, nil)
			return data
		}
		p.logger.Warn("robots.txt unavailable", "url", robotsURL, "error", err)
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		p.logger.Warn("robots.txt unparsable", "url", robotsURL, "error", err)
		return nil
	}
	return data
}

// Sitemaps returns the Sitemap URLs listed in the robots.txt of siteURL's
// host, in file order.
func (p *Policy) Sitemaps(ctx context.Context, siteURL string) []string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return nil
	}
	data := p.rules(ctx, u)
	if data == nil {
		return nil
	}
	return data.Sitemaps
}
