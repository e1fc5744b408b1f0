package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/goquery"
)

// Run executes the tree command: a dry run of the import walk that prints
// every item the import would create, indented under its parent.
func (c *TreeCmd) Run(deps *Dependencies) error {
	source, err := findSource(deps, c.Name)
	if err != nil {
		return err
	}
	strategy, err := sitecrawl.ParseDuplicateStrategy(c.Strategy)
	if err != nil {
		return report(deps, err)
	}

	schemas, err := deps.Schemas.FindSchemas(deps.Ctx, source.ID)
	if err != nil {
		return report(deps, err)
	}

	printer := &treePrinter{w: deps.Stdout, depth: make(map[string]int)}
	walker, err := deps.Workspace.Walker(source, schemas, printer, dryRunProcesses(schemas, printer))
	if err != nil {
		return report(deps, err)
	}
	if c.AutoCrawl {
		deps.Workspace.EnableAutoCrawl(deps.Ctx, walker.URLs, source)
	}
	walker.Strategy = strategy
	walker.Concurrency = c.Concurrency

	result, err := walker.Walk(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}

	fmt.Fprintf(deps.Stdout, "\nImported: %d  Skipped: %d  Failed: %d\n", result.Imported, result.Skipped, result.Failed)
	return nil
}

// treePrinter is a ContentTransformer that prints items instead of storing
// them. Results are keyed by processed URL.
type treePrinter struct {
	w     io.Writer
	depth map[string]int
}

func (p *treePrinter) Transform(_ context.Context, item *sitecrawl.ContentItem, parent *sitecrawl.TransformResult, _ sitecrawl.DuplicateStrategy) (*sitecrawl.TransformResult, error) {
	depth := 0
	if parent != nil {
		depth = p.depth[parent.ID] + 1
	}
	p.depth[item.ProcessedURL] = depth

	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(item.ProcessedURL)
	fmt.Fprintf(&b, "  [%s]", item.Schema.DataType)
	if item.Inferred {
		b.WriteString(" (inferred)")
	} else if title := goquery.Title(item.Content); title != "" {
		fmt.Fprintf(&b, " %q", title)
	}
	if len(item.Aliases) > 0 {
		fmt.Fprintf(&b, " aliases: %s", strings.Join(item.Aliases, ", "))
	}
	fmt.Fprintln(p.w, b.String())

	return &sitecrawl.TransformResult{ID: item.ProcessedURL, Item: item}, nil
}

// dryRunProcesses registers a printing stand-in for every import process the
// schemas name.
func dryRunProcesses(schemas []*sitecrawl.Schema, p *treePrinter) *sitecrawl.ImportProcessRegistry {
	registry := sitecrawl.NewImportProcessRegistry()
	for _, s := range schemas {
		for _, name := range s.Processors {
			registry.Register(name, func() sitecrawl.ImportProcess {
				return &printProcess{name: name, printer: p}
			})
		}
	}
	return registry
}

type printProcess struct {
	name    string
	printer *treePrinter
}

func (pp *printProcess) Process(_ context.Context, item *sitecrawl.ContentItem, target, _ *sitecrawl.TransformResult, _ sitecrawl.DuplicateStrategy) error {
	depth := pp.printer.depth[target.ID]
	fmt.Fprintf(pp.printer.w, "%s+ %s\n", strings.Repeat("  ", depth+1), pp.name)
	return nil
}
