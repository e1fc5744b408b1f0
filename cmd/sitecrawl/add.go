package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/sitecrawl"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	if _, err := deps.Processors.Get(c.Processor); err != nil {
		return report(deps, err)
	}

	if c.Force {
		existing, err := deps.Sources.FindSources(deps.Ctx, sitecrawl.SourceFilter{Name: &c.Name})
		if err != nil {
			return report(deps, err)
		}
		if len(existing) > 0 {
			if err := deps.Sources.DeleteSource(deps.Ctx, existing[0].ID); err != nil {
				return report(deps, err)
			}
			if err := os.RemoveAll(deps.Workspace.Dir(existing[0])); err != nil {
				return report(deps, err)
			}
		}
	}

	source := &sitecrawl.Source{
		Name:            c.Name,
		BaseURL:         c.URL,
		URLProcessor:    c.Processor,
		ExtraCrawlURLs:  c.Extra,
		ExcludePatterns: c.Exclude,
	}
	if err := deps.Sources.CreateSource(deps.Ctx, source); err != nil {
		return report(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Added site %q (%s)\n", source.Name, source.ID)
	return nil
}
