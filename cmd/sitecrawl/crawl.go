package main

import (
	"fmt"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
)

// Run executes the crawl command. An interrupted crawl resumes on the next
// run.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	source, err := findSource(deps, c.Name)
	if err != nil {
		return err
	}

	crawler, closeCache, err := deps.Workspace.Crawler(source, c.Threads, !c.NoSitemap)
	if err != nil {
		return report(deps, err)
	}
	defer closeCache()
	crawler.Timeout = c.Timeout

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Crawling %s (crawl %s)\n", source.BaseURL, event.CrawlerID)
		case crawl.ProgressResumed:
			fmt.Fprintf(deps.Stdout, "Resuming crawl %s of %s\n", event.CrawlerID, source.BaseURL)
		case crawl.ProgressDocument:
			if !c.Quiet {
				fmt.Fprintf(deps.Stdout, "  %d %s\n", event.Status, event.URL)
			}
		case crawl.ProgressRedirect:
			if !c.Quiet {
				fmt.Fprintf(deps.Stdout, "  %d %s -> %s\n", event.Status, event.URL, event.Target)
			}
		case crawl.ProgressSkipped:
			fmt.Fprintf(deps.Stderr, "  skipped %s (%d, linked from %s)\n", event.URL, event.Status, event.Referer)
		}
	}

	result, err := crawler.Crawl(deps.Ctx, c.Limit, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: crawl stopped: %v\n", err)
		if sitecrawl.ErrorCode(err) != sitecrawl.EINVALID {
			fmt.Fprintf(deps.Stderr, "Run 'sitecrawl crawl %s' again to resume.\n", source.Name)
		}
		return err
	}

	n, err := crawler.URLs.NumURLs()
	if err != nil {
		return report(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "Links followed:      %d\n", result.LinksFollowed)
	fmt.Fprintf(deps.Stdout, "Documents received:  %d\n", result.DocumentsReceived)
	fmt.Fprintf(deps.Stdout, "Bytes received:      %s\n", crawl.FormatBytes(result.BytesReceived))
	fmt.Fprintf(deps.Stdout, "Process runtime:     %s\n", crawl.FormatDuration(result.Runtime))
	fmt.Fprintf(deps.Stdout, "URLs recorded:       %d\n", n)
	return nil
}
