package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	Sources    sitecrawl.SourceService
	Schemas    sitecrawl.SchemaService
	Processors *sitecrawl.ProcessorRegistry
	Workspace  *Workspace
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging"`

	Add        AddCmd        `cmd:"" help:"Register a site to crawl"`
	List       ListCmd       `cmd:"" help:"List registered sites and their crawl status"`
	Delete     DeleteCmd     `cmd:"" help:"Delete a site, its schemas and its crawl state"`
	Schemas    SchemasCmd    `cmd:"" help:"Manage import schemas"`
	Crawl      CrawlCmd      `cmd:"" help:"Crawl a site and record its URL map"`
	Status     StatusCmd     `cmd:"" help:"Show the crawl status of a site"`
	URLs       URLsCmd       `cmd:"" name:"urls" help:"List the crawled URLs of a site"`
	Reprocess  ReprocessCmd  `cmd:"" help:"Recompute processed URLs with a URL processor"`
	Tree       TreeCmd       `cmd:"" help:"Walk the crawled hierarchy as the import would"`
	Processors ProcessorsCmd `cmd:"" help:"List available URL processors"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	Name      string   `arg:"" help:"Site name"`
	URL       string   `arg:"" help:"Base URL of the site"`
	Processor string   `short:"p" help:"URL processor (see 'sitecrawl processors')"`
	Extra     []string `short:"e" name:"extra" help:"Additional URL to crawl (repeatable)"`
	Exclude   []string `short:"x" name:"exclude" help:"Regex of URLs never to fetch (repeatable)"`
	Force     bool     `short:"f" help:"Replace an existing site of the same name"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	Name  string `arg:"" help:"Site name"`
	Force bool   `help:"Confirm deletion"`
}

// SchemasCmd groups the schema subcommands.
type SchemasCmd struct {
	Load SchemasLoadCmd `cmd:"" help:"Load sites and schemas from a YAML file"`
	List SchemasListCmd `cmd:"" help:"List the schemas of a site"`
}

// SchemasLoadCmd is the "schemas load" subcommand.
type SchemasLoadCmd struct {
	File string `arg:"" type:"existingfile" help:"YAML configuration file"`
}

// SchemasListCmd is the "schemas list" subcommand.
type SchemasListCmd struct {
	Name string `arg:"" help:"Site name"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Name      string        `arg:"" help:"Site name"`
	Limit     int           `short:"l" help:"Maximum number of requests (0 for unlimited)"`
	Timeout   time.Duration `short:"t" help:"Abort the crawl after this long (0 for no limit)"`
	Threads   int           `short:"c" default:"4" help:"Concurrent requests"`
	NoSitemap bool          `help:"Do not seed the crawl from the site's sitemaps"`
	Quiet     bool          `short:"q" help:"Only print the summary"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct {
	Name string `arg:"" help:"Site name"`
}

// URLsCmd is the "urls" subcommand.
type URLsCmd struct {
	Name    string `arg:"" help:"Site name"`
	Aliases bool   `short:"a" help:"Show redirect aliases"`
	Plain   bool   `help:"Print one processed URL per line instead of a table"`

	AutoCrawl bool `help:"Crawl the site first if it has not been crawled yet"`
}

// ReprocessCmd is the "reprocess" subcommand.
type ReprocessCmd struct {
	Name      string `arg:"" help:"Site name"`
	Processor string `short:"p" help:"Switch the site to this URL processor first"`
}

// TreeCmd is the "tree" subcommand.
type TreeCmd struct {
	Name        string `arg:"" help:"Site name"`
	Strategy    string `short:"s" default:"Skip" enum:"Overwrite,Duplicate,Skip" help:"Duplicate handling passed to the import (Overwrite, Duplicate, Skip)"`
	Concurrency int    `short:"c" default:"4" help:"Concurrent page fetches"`
	AutoCrawl   bool   `help:"Crawl the site first if it has not been crawled yet"`
}

// ProcessorsCmd is the "processors" subcommand.
type ProcessorsCmd struct{}
