package sitecrawl

import (
	"net/url"
	"strings"
	"time"
)

// Crawl defaults. The delay matches the Crawl-delay published by the
// sites this tool was first pointed at.
const (
	DefaultCrawlDelay     = 3 * time.Second
	DefaultPageTimeout    = 15 * time.Second
	DefaultSitemapTimeout = 10 * time.Second
	DefaultConcurrency    = 1
	DefaultOutputPath     = "crawl_output.txt"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "en-US,en;q=0.9"
)

// Config holds the settings of a crawl run.
type Config struct {
	// SitemapURL is the root sitemap. Defaults to /sitemap.xml on BaseURL.
	SitemapURL string `yaml:"sitemap_url"`

	// BaseURL is the crawl root; its authority is the crawl domain.
	BaseURL string `yaml:"base_url"`

	// OutputPath is where the text artifact is written.
	OutputPath string `yaml:"output"`

	// CrawlDelay is the minimum time between consecutive requests.
	// A larger Crawl-delay from robots.txt takes precedence.
	CrawlDelay time.Duration `yaml:"crawl_delay"`

	PageTimeout    time.Duration `yaml:"page_timeout"`
	SitemapTimeout time.Duration `yaml:"sitemap_timeout"`

	// Concurrency is the number of fetch workers. 1 means sequential BFS.
	Concurrency int `yaml:"concurrency"`

	// MaxPages stops the crawl after this many URLs are dequeued. 0 means no limit.
	MaxPages int `yaml:"max_pages"`

	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"`

	// Include and Exclude are regular expressions applied to sitemap page URLs.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// MirrorDir, if set, receives a Markdown copy of every crawled page.
	MirrorDir string `yaml:"mirror_dir"`

	// RespectRobots skips URLs disallowed by robots.txt.
	RespectRobots bool `yaml:"respect_robots"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() Config {
	return Config{
		OutputPath:     DefaultOutputPath,
		CrawlDelay:     DefaultCrawlDelay,
		PageTimeout:    DefaultPageTimeout,
		SitemapTimeout: DefaultSitemapTimeout,
		Concurrency:    DefaultConcurrency,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
	}
}

// Validate returns an error if the configuration cannot start a crawl.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return Errorf(EINVALID, "base URL required")
	}
	if _, err := NewScope(c.BaseURL); err != nil {
		return err
	}
	if c.SitemapURL != "" {
		if _, err := NormalizeURL(c.SitemapURL, ""); err != nil {
			return Errorf(EINVALID, "invalid sitemap URL %q", c.SitemapURL)
		}
	}
	if c.OutputPath == "" {
		return Errorf(EINVALID, "output path required")
	}
	if c.CrawlDelay < 0 {
		return Errorf(EINVALID, "crawl delay must not be negative")
	}
	if c.PageTimeout <= 0 || c.SitemapTimeout <= 0 {
		return Errorf(EINVALID, "timeouts must be positive")
	}
	if c.Concurrency < 1 {
		return Errorf(EINVALID, "concurrency must be at least 1")
	}
	if c.MaxPages < 0 {
		return Errorf(EINVALID, "max pages must not be negative")
	}
	if _, err := NewURLFilter(c.Include, c.Exclude); err != nil {
		return err
	}
	return nil
}

// ResolvedSitemapURL returns SitemapURL, or /sitemap.xml on the base URL's
// host when no sitemap is configured.
func (c *Config) ResolvedSitemapURL() string {
	if c.SitemapURL != "" {
		return c.SitemapURL
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
}
