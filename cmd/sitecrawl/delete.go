package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/sitecrawl"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return sitecrawl.Errorf(sitecrawl.EINVALID, "use --force to confirm deletion")
	}

	source, err := findSource(deps, c.Name)
	if err != nil {
		return err
	}

	if err := deps.Sources.DeleteSource(deps.Ctx, source.ID); err != nil {
		return report(deps, err)
	}
	if err := os.RemoveAll(deps.Workspace.Dir(source)); err != nil {
		return report(deps, fmt.Errorf("failed to remove crawl state: %w", err))
	}

	fmt.Fprintf(deps.Stdout, "Deleted site %q\n", source.Name)
	return nil
}
