package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	filter := sitecrawl.RunFilter{Limit: c.Limit}
	if c.Base != "" {
		// Runs store the normalized base URL.
		base := c.Base
		if normalized, err := sitecrawl.NormalizeURL(base, ""); err == nil {
			base = normalized
		}
		filter.BaseURL = &base
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'sitecrawl crawl' to start one.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %-9s  %s  visited=%d failed=%d  %s\n",
			r.ID, r.Status, r.StartedAt.Local().Format(time.DateTime), r.Visited, r.Failed, r.BaseURL)
	}

	return nil
}
