// Package crawl provides website crawling orchestration.
// It coordinates sitemap resolution, the URL frontier, polite fetching,
// content extraction, and persistence of the resulting page records.
package crawl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
)

// Frontier configuration.
const (
	// frontierExpectedURLs is the expected number of URLs for Bloom filter sizing.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the acceptable false positive rate of the pre-filter.
	frontierFalsePositiveRate = 0.01
)

// Crawler orchestrates a crawl run over a single site.
// A Crawler holds no per-run state and may be reused for repeated runs.
type Crawler struct {
	Sitemaps  sitecrawl.SitemapResolver
	Fetcher   sitecrawl.Fetcher
	Extractor sitecrawl.Extractor

	// Limiter is shared with the sitemap resolver so that sitemap and page
	// fetches are spaced by the same delay. Defaults to the standard crawl delay.
	Limiter sitecrawl.Limiter

	// Robots, if set, is consulted before every page fetch and disallowed
	// URLs are skipped.
	Robots sitecrawl.RobotsPolicy

	// Journal, if set, receives the run and each record as it is produced.
	Journal sitecrawl.RunJournal

	// Mirror and Converter, if both set, store a Markdown copy of every page.
	Mirror    sitecrawl.PageStore
	Converter sitecrawl.Converter

	Logger *slog.Logger

	// Concurrency is the number of fetch workers. Values below 1 mean 1.
	Concurrency int

	// MaxPages caps the number of URLs dequeued. 0 means no limit.
	MaxPages int
}

// ProgressEvent reports progress during a crawl operation.
type ProgressEvent struct {
	Type      ProgressType
	Completed int // URLs processed so far
	Total     int // URLs processed plus URLs pending
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressSkipped
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawl resolves the sitemap at sitemapURL, then traverses the site rooted
// at baseURL breadth-first and returns the page records in visit order.
//
// Per-URL failures are counted and skipped. Configuration problems abort
// the run with an EINVALID error before any page is recorded. If ctx is
// canceled, the partial result is returned along with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, sitemapURL, baseURL string, progress ProgressFunc) (*sitecrawl.CrawlResult, error) {
	scope, err := sitecrawl.NewScope(baseURL)
	if err != nil {
		return nil, err
	}
	base, err := sitecrawl.NormalizeURL(baseURL, "")
	if err != nil {
		return nil, err
	}
	if _, err := sitecrawl.NormalizeURL(sitemapURL, ""); err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid sitemap URL %q", sitemapURL)
	}

	logger := c.logger()

	run := &sitecrawl.Run{
		ID:         uuid.NewString(),
		SitemapURL: sitemapURL,
		BaseURL:    base,
		Status:     sitecrawl.RunRunning,
		StartedAt:  time.Now().UTC(),
	}
	if c.Journal != nil {
		if err := c.Journal.CreateRun(ctx, run); err != nil {
			return nil, err
		}
	}

	seeds, err := c.Sitemaps.Resolve(ctx, sitemapURL)
	if err != nil {
		result := &sitecrawl.CrawlResult{RunID: run.ID, Records: []*sitecrawl.PageRecord{}}
		c.finishRun(ctx, run, result, err)
		return result, err
	}
	logger.Info("seeds resolved", "sitemap", sitemapURL, "count", len(seeds))

	frontier := NewFrontier(uint(max(len(seeds)*2, frontierExpectedURLs)), frontierFalsePositiveRate)
	for _, u := range seeds {
		if scope.Contains(u) {
			frontier.Push(u)
		}
	}
	frontier.PushFront(base)

	limiter := c.Limiter
	if limiter == nil {
		limiter = NewLimiter(sitecrawl.DefaultCrawlDelay)
	}

	w := &walk{
		crawler:  c,
		limiter:  limiter,
		scope:    scope,
		frontier: frontier,
		run:      run,
		base:     base,
		noSeeds:  len(seeds) == 0,
		progress: progress,
		logger:   logger,
		result: &sitecrawl.CrawlResult{
			RunID:   run.ID,
			Records: []*sitecrawl.PageRecord{},
		},
	}

	w.emit(ProgressEvent{Type: ProgressStarted, Total: frontier.Len()})

	walkErr := w.walkFrontier(ctx)

	w.emit(ProgressEvent{
		Type:      ProgressFinished,
		Completed: w.result.Visited,
		Total:     w.result.Visited,
	})

	if c.Mirror != nil && c.Converter != nil {
		if err := c.Mirror.Commit(); err != nil {
			logger.Warn("mirror commit failed", "error", err)
		}
	}

	c.finishRun(ctx, run, w.result, walkErr)

	logger.Info("crawl finished",
		"visited", w.result.Visited,
		"records", len(w.result.Records),
		"failed", w.result.Failed,
		"skipped", w.result.Skipped,
	)

	if walkErr != nil {
		if sitecrawl.ErrorCode(walkErr) == sitecrawl.EINVALID {
			return nil, walkErr
		}
		return w.result, walkErr
	}
	return w.result, nil
}

// finishRun records the final state of the run in the journal.
func (c *Crawler) finishRun(ctx context.Context, run *sitecrawl.Run, result *sitecrawl.CrawlResult, err error) {
	if c.Journal == nil {
		return
	}
	run.Status = sitecrawl.RunCompleted
	if err != nil {
		run.Status = sitecrawl.RunCanceled
	}
	run.Visited = result.Visited
	run.Failed = result.Failed
	run.FinishedAt = time.Now().UTC()

	// The run must be closed even when ctx is already canceled.
	if err := c.Journal.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		c.logger().Warn("journal finish failed", "run", run.ID, "error", err)
	}
}

// pageResult holds the outcome of processing a single URL.
type pageResult struct {
	url        string
	extraction *sitecrawl.Extraction
	fetchedAt  time.Time
	skipped    string // reason, empty unless the URL was not fetched
	err        error
}

// processURL fetches and extracts a single URL. It never touches the
// frontier or the result; the walk coordinator owns both.
func (c *Crawler) processURL(ctx context.Context, limiter sitecrawl.Limiter, scope *sitecrawl.Scope, url string) pageResult {
	result := pageResult{url: url}

	// The frontier may hold URLs queued before scoping was applied.
	if !scope.Contains(url) {
		result.skipped = "out of scope"
		return result
	}

	if c.Robots != nil && !c.Robots.Allowed(ctx, url) {
		result.skipped = "disallowed by robots.txt"
		return result
	}

	if err := limiter.Wait(ctx); err != nil {
		result.err = err
		return result
	}

	resp, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		result.err = err
		return result
	}
	result.fetchedAt = time.Now().UTC()

	if !isMarkup(resp.ContentType) {
		result.skipped = "not markup: " + resp.ContentType
		return result
	}

	extraction, err := c.Extractor.Extract(string(resp.Body), url)
	if err != nil {
		result.err = err
		return result
	}
	result.extraction = extraction

	return result
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// isMarkup reports whether a response with the given content type should be
// passed to the extractor. A missing content type is treated as markup.
func isMarkup(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml") || strings.HasPrefix(ct, "text/")
}
