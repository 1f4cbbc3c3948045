package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion of run %s\n", c.RunID)
		return sitecrawl.Errorf(sitecrawl.EINVALID, "deletion not confirmed")
	}

	if err := deps.Runs.DeleteRun(deps.Ctx, c.RunID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted run %s\n", c.RunID)
	return nil
}
