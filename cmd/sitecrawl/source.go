package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
)

// findSource looks a site up by name, reporting a missing one on stderr.
func findSource(deps *Dependencies, name string) (*sitecrawl.Source, error) {
	sources, err := deps.Sources.FindSources(deps.Ctx, sitecrawl.SourceFilter{Name: &name})
	if err != nil {
		return nil, report(deps, err)
	}
	if len(sources) == 0 {
		fmt.Fprintf(deps.Stderr, "error: site %q not found. Use 'sitecrawl list' to see registered sites.\n", name)
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "site %q not found", name)
	}
	return sources[0], nil
}

// report prints err for the user and returns it.
func report(deps *Dependencies, err error) error {
	if sitecrawl.ErrorCode(err) == sitecrawl.ENOTCRAWLED {
		fmt.Fprintln(deps.Stderr, "error: site has not been crawled yet. Run 'sitecrawl crawl' first.")
		return err
	}
	fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
	return err
}
