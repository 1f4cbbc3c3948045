package crawl

import (
	"context"
	"log/slog"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// walk is the state of a single crawl run. The coordinator goroutine owns
// the frontier pushes, the result and the persistence side effects;
// workers only fetch and extract.
type walk struct {
	crawler  *Crawler
	limiter  sitecrawl.Limiter
	scope    *sitecrawl.Scope
	frontier sitecrawl.Frontier
	run      *sitecrawl.Run
	base     string
	noSeeds  bool
	progress ProgressFunc
	logger   *slog.Logger

	result *sitecrawl.CrawlResult
	abort  error
}

// walkFrontier drives the frontier until it is exhausted, MaxPages URLs
// have been dispatched, the run is aborted, or ctx is canceled.
func (w *walk) walkFrontier(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	concurrency := max(w.crawler.Concurrency, 1)

	workCh := make(chan string)
	resultCh := make(chan pageResult)

	var g errgroup.Group
	for range concurrency {
		g.Go(func() error {
			for url := range workCh {
				result := w.processURL(ctx, url)
				select {
				case resultCh <- result:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	dispatched := 0 // URLs handed to workers
	inFlight := 0   // URLs currently being processed
	var next string
	hasNext := false

	limitReached := func() bool {
		return w.crawler.MaxPages > 0 && dispatched >= w.crawler.MaxPages
	}
	popNext := func() {
		if !hasNext && !limitReached() {
			next, hasNext = w.frontier.Pop()
		}
	}

	popNext()

loop:
	for {
		if !hasNext && inFlight == 0 {
			break loop
		}
		if ctx.Err() != nil || w.abort != nil {
			break loop
		}

		if hasNext {
			select {
			case <-ctx.Done():
				break loop
			case workCh <- next:
				dispatched++
				inFlight++
				hasNext = false
			case res := <-resultCh:
				inFlight--
				w.handle(ctx, res, dispatched)
			}
		} else {
			select {
			case <-ctx.Done():
				break loop
			case res := <-resultCh:
				inFlight--
				w.handle(ctx, res, dispatched)
			}
		}

		popNext()
	}

	close(workCh)
	if w.abort != nil {
		cancel()
	}

	// Record whatever in-flight workers still deliver.
	for res := range resultCh {
		w.handle(ctx, res, dispatched)
	}

	w.result.Visited = dispatched

	if w.abort != nil {
		return w.abort
	}
	return ctx.Err()
}

// processURL delegates to the crawler with the run's limiter and scope.
func (w *walk) processURL(ctx context.Context, url string) pageResult {
	return w.crawler.processURL(ctx, w.limiter, w.scope, url)
}

// handle folds a worker result into the run.
func (w *walk) handle(ctx context.Context, res pageResult, dispatched int) {
	switch {
	case res.err != nil:
		if ctx.Err() != nil {
			// Interrupted rather than failed.
			return
		}
		w.result.Failed++
		w.logger.Warn("fetch failed",
			"url", res.url,
			"kind", sitecrawl.FetchErrorKindOf(res.err).String(),
			"error", res.err,
		)
		w.emit(ProgressEvent{
			Type:      ProgressFailed,
			Completed: w.completed(),
			Total:     dispatched + w.frontier.Len(),
			URL:       res.url,
			Error:     res.err,
		})
		if w.noSeeds && res.url == w.base {
			w.abort = sitecrawl.Errorf(sitecrawl.EINVALID, "sitemap yielded no URLs and base URL %s is unreachable: %v", w.base, res.err)
		}
		return

	case res.skipped != "":
		w.result.Skipped++
		w.logger.Debug("url skipped", "url", res.url, "reason", res.skipped)
		w.emit(ProgressEvent{
			Type:      ProgressSkipped,
			Completed: w.completed(),
			Total:     dispatched + w.frontier.Len(),
			URL:       res.url,
		})
		return
	}

	ext := res.extraction
	record := &sitecrawl.PageRecord{
		ID:          uuid.NewString(),
		URL:         res.url,
		Title:       ext.Title,
		Text:        ext.Text,
		Links:       ext.Links,
		ContentHash: ComputeHash(ext.Text),
		Position:    len(w.result.Records),
		FetchedAt:   res.fetchedAt,
	}
	w.result.Records = append(w.result.Records, record)

	added := 0
	for _, link := range ext.Links {
		if w.scope.Contains(link) && w.frontier.Push(link) {
			added++
		}
	}
	w.logger.Debug("page crawled", "url", res.url, "links", len(ext.Links), "queued", added)

	w.journal(ctx, record)
	w.mirror(ctx, record, ext)

	w.emit(ProgressEvent{
		Type:      ProgressCompleted,
		Completed: w.completed(),
		Total:     dispatched + w.frontier.Len(),
		URL:       res.url,
	})
}

func (w *walk) completed() int {
	return len(w.result.Records) + w.result.Failed + w.result.Skipped
}

// journal appends the record to the run journal. Failures are logged only.
func (w *walk) journal(ctx context.Context, record *sitecrawl.PageRecord) {
	if w.crawler.Journal == nil {
		return
	}
	if err := w.crawler.Journal.CreateRecord(context.WithoutCancel(ctx), w.run.ID, record); err != nil {
		w.logger.Warn("journal write failed", "url", record.URL, "error", err)
	}
}

// mirror stores a Markdown copy of the page. Failures are logged only.
func (w *walk) mirror(ctx context.Context, record *sitecrawl.PageRecord, ext *sitecrawl.Extraction) {
	c := w.crawler
	if c.Mirror == nil || c.Converter == nil {
		return
	}
	markdown, err := c.Converter.Convert(ext.ContentHTML, record.URL)
	if err != nil {
		w.logger.Warn("mirror convert failed", "url", record.URL, "error", err)
		return
	}
	page := &sitecrawl.Page{
		URL:     record.URL,
		Title:   record.Title,
		Content: markdown,
	}
	if err := c.Mirror.Save(context.WithoutCancel(ctx), page); err != nil {
		w.logger.Warn("mirror save failed", "url", record.URL, "error", err)
	}
}

func (w *walk) emit(event ProgressEvent) {
	if w.progress != nil {
		w.progress(event)
	}
}
