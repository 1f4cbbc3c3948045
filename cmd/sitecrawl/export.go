package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	records, err := deps.Runs.FindRecords(deps.Ctx, c.RunID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
		return err
	}

	result := &sitecrawl.CrawlResult{RunID: c.RunID, Records: records}
	if err := fs.NewResultWriter(c.Output).Write(deps.Ctx, result); err != nil {
		fmt.Fprintf(deps.Stderr, "error: failed to write output: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d pages to %s\n", len(records), c.Output)
	return nil
}
