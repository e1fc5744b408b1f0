package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
)

// Run executes the reprocess command.
func (c *ReprocessCmd) Run(deps *Dependencies) error {
	source, err := findSource(deps, c.Name)
	if err != nil {
		return err
	}

	if c.Processor != "" && c.Processor != source.URLProcessor {
		if _, err := deps.Processors.Get(c.Processor); err != nil {
			return report(deps, err)
		}
		source, err = deps.Sources.UpdateSource(deps.Ctx, source.ID, sitecrawl.SourceUpdate{URLProcessor: &c.Processor})
		if err != nil {
			return report(deps, err)
		}
	}

	urls, err := deps.Workspace.URLList(source)
	if err != nil {
		return report(deps, err)
	}
	if err := urls.ReprocessURLs(); err != nil {
		return report(deps, err)
	}
	n, err := urls.NumURLs()
	if err != nil {
		return report(deps, err)
	}

	processor := source.URLProcessor
	if processor == "" {
		processor = sitecrawl.IdentityProcessorName
	}
	fmt.Fprintf(deps.Stdout, "Reprocessed %q with %s: %d URLs\n", source.Name, processor, n)
	return nil
}
