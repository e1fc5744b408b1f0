package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fwojciec/sitecrawl"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the urls command.
func (c *URLsCmd) Run(deps *Dependencies) error {
	source, err := findSource(deps, c.Name)
	if err != nil {
		return err
	}

	urls, err := deps.Workspace.URLList(source)
	if err != nil {
		return report(deps, err)
	}
	if c.AutoCrawl {
		deps.Workspace.EnableAutoCrawl(deps.Ctx, urls, source)
	}

	if c.Plain {
		processed, err := urls.ProcessedURLs()
		if err != nil {
			return report(deps, err)
		}
		if out := sitecrawl.FormatProcessedURLs(processed); out != "" {
			fmt.Fprintln(deps.Stdout, out)
		}
		return nil
	}

	state, err := urls.State()
	if err != nil {
		return report(deps, err)
	}

	type row struct{ processed, raw, mime string }
	var rows []row
	for _, raw := range state.RegularKeys() {
		rec := state.Regular[raw]
		rows = append(rows, row{rec.ProcessedURL, raw, rec.MIME})
	}
	for _, processed := range state.InferredKeys() {
		rows = append(rows, row{processed, "(inferred)", state.Inferred[processed].MIME})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].processed < rows[j].processed })

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Processed URL", "Raw URL", "MIME"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.processed, r.raw, r.mime})
	}
	t.Render()

	if c.Aliases && len(state.Aliases) > 0 {
		at := table.NewWriter()
		at.SetOutputMirror(deps.Stdout)
		at.SetStyle(table.StyleLight)
		at.AppendHeader(table.Row{"URL", "Aliases"})
		for _, dest := range state.AliasKeys() {
			at.AppendRow(table.Row{dest, strings.Join(state.Aliases[dest], ", ")})
		}
		at.Render()
	}
	return nil
}
