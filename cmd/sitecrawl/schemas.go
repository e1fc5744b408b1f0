package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/yaml"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the schemas load command. Sites are created or updated by
// name and their schemas replaced by the file's.
func (c *SchemasLoadCmd) Run(deps *Dependencies) error {
	cfg, err := yaml.LoadConfig(c.File)
	if err != nil {
		return report(deps, err)
	}

	for _, sc := range cfg.Sources {
		if _, err := deps.Processors.Get(sc.Source.URLProcessor); err != nil {
			return report(deps, err)
		}
		source, err := c.upsert(deps, sc.Source)
		if err != nil {
			return report(deps, err)
		}

		if err := deps.Schemas.DeleteSchemas(deps.Ctx, source.ID); err != nil {
			return report(deps, err)
		}
		for _, schema := range sc.Schemas {
			schema.SourceID = source.ID
			if err := deps.Schemas.CreateSchema(deps.Ctx, schema); err != nil {
				return report(deps, err)
			}
		}
		fmt.Fprintf(deps.Stdout, "Loaded site %q with %d schemas\n", source.Name, len(sc.Schemas))
	}
	return nil
}

func (c *SchemasLoadCmd) upsert(deps *Dependencies, source *sitecrawl.Source) (*sitecrawl.Source, error) {
	existing, err := deps.Sources.FindSources(deps.Ctx, sitecrawl.SourceFilter{Name: &source.Name})
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		if err := deps.Sources.CreateSource(deps.Ctx, source); err != nil {
			return nil, err
		}
		return source, nil
	}
	return deps.Sources.UpdateSource(deps.Ctx, existing[0].ID, sitecrawl.SourceUpdate{
		BaseURL:         &source.BaseURL,
		URLProcessor:    &source.URLProcessor,
		ExtraCrawlURLs:  &source.ExtraCrawlURLs,
		ExcludePatterns: &source.ExcludePatterns,
	})
}

// Run executes the schemas list command.
func (c *SchemasListCmd) Run(deps *Dependencies) error {
	source, err := findSource(deps, c.Name)
	if err != nil {
		return err
	}

	schemas, err := deps.Schemas.FindSchemas(deps.Ctx, source.ID)
	if err != nil {
		return report(deps, err)
	}
	if len(schemas) == 0 {
		fmt.Fprintf(deps.Stdout, "No schemas for %q; every HTML page is imported as a Page.\n", source.Name)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Priority", "Type", "Applies To", "MIME Types", "CSS Filter", "Rules", "Processors"})
	for _, s := range schemas {
		t.AppendRow(table.Row{
			s.Priority,
			s.DataType,
			s.AppliesTo,
			strings.Join(s.MIMETypes, ", "),
			s.CSSFilter,
			len(s.Rules),
			strings.Join(s.Processors, ", "),
		})
	}
	t.Render()
	return nil
}
