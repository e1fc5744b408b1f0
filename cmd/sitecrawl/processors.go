package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the processors command.
func (c *ProcessorsCmd) Run(deps *Dependencies) error {
	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Description"})
	for _, name := range deps.Processors.List() {
		p, err := deps.Processors.Get(name)
		if err != nil {
			return report(deps, err)
		}
		t.AppendRow(table.Row{name, p.Description()})
	}
	t.Render()
	return nil
}
