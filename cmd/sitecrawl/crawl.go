package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	sitemapURL := cfg.ResolvedSitemapURL()

	if c.Preview {
		urls, err := deps.Crawler.Sitemaps.Resolve(deps.Ctx, sitemapURL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
			return err
		}
		for _, u := range urls {
			fmt.Fprintln(deps.Stdout, u)
		}
		return nil
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Found %d URLs\n", event.Total)
		case crawl.ProgressCompleted:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] %s\n", event.Completed, event.Total, crawl.TruncateURL(event.URL, 80))
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.URL, event.Error)
		}
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, sitemapURL, cfg.BaseURL, progress)
	if result == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
		return err
	}
	if err != nil && !isInterrupted(err) {
		fmt.Fprintf(deps.Stderr, "error crawling: %v\n", err)
		return err
	}

	// An interrupted run still writes what it collected.
	if werr := deps.Writer.Write(deps.Ctx, result); werr != nil {
		fmt.Fprintf(deps.Stderr, "error: failed to write output: %v\n", werr)
		return werr
	}

	if err != nil {
		fmt.Fprintf(deps.Stdout, "Interrupted after %d URLs, saved %d pages (%s) to %s (run %s)\n",
			result.Visited, len(result.Records), crawl.FormatBytes(crawl.ResultBytes(result.Records)), cfg.OutputPath, result.RunID)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Visited %d URLs, saved %d pages (%s) to %s\n",
		result.Visited, len(result.Records), crawl.FormatBytes(crawl.ResultBytes(result.Records)), cfg.OutputPath)
	if result.Failed > 0 || result.Skipped > 0 {
		fmt.Fprintf(deps.Stdout, "  %d failed, %d skipped\n", result.Failed, result.Skipped)
	}
	fmt.Fprintf(deps.Stdout, "  run %s\n", result.RunID)
	return nil
}
