package main

import (
	"fmt"
	"strconv"

	"github.com/fwojciec/sitecrawl"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	sources, err := deps.Sources.FindSources(deps.Ctx, sitecrawl.SourceFilter{})
	if err != nil {
		return report(deps, err)
	}

	if len(sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No sites found. Use 'sitecrawl add' to register one.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Base URL", "Processor", "Status", "URLs"})

	for _, s := range sources {
		status, count := "-", "-"
		if urls, err := deps.Workspace.URLList(s); err == nil {
			st := urls.SpiderStatus()
			status = string(st)
			if st != sitecrawl.SpiderNotStarted {
				if n, err := urls.NumURLs(); err == nil {
					count = strconv.Itoa(n)
				}
			}
		}
		processor := s.URLProcessor
		if processor == "" {
			processor = sitecrawl.IdentityProcessorName
		}
		t.AppendRow(table.Row{s.Name, s.BaseURL, processor, status, count})
	}

	t.Render()
	return nil
}
