package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	source, err := findSource(deps, c.Name)
	if err != nil {
		return err
	}

	urls, err := deps.Workspace.URLList(source)
	if err != nil {
		return report(deps, err)
	}

	status := urls.SpiderStatus()
	fmt.Fprintf(deps.Stdout, "Site:    %s (%s)\n", source.Name, source.BaseURL)
	fmt.Fprintf(deps.Stdout, "Status:  %s\n", status)
	if status == sitecrawl.SpiderNotStarted {
		return nil
	}

	n, err := urls.NumURLs()
	if err != nil {
		return report(deps, err)
	}
	fmt.Fprintf(deps.Stdout, "URLs:    %d\n", n)
	if status == sitecrawl.SpiderPartial {
		fmt.Fprintf(deps.Stdout, "Run 'sitecrawl crawl %s' to resume.\n", source.Name)
	}
	return nil
}
