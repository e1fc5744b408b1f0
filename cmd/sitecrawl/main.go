package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitecrawl"
	sitecrawlhttp "github.com/fwojciec/sitecrawl/http"
	sitecrawlslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/fwojciec/sitecrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// CacheDir holds per-source crawl state. Set before calling Run().
	CacheDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Workspace overrides per-source wiring, for end-to-end tests.
	Workspace *Workspace
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:   defaultPath("SITECRAWL_DB", "sitecrawl.db"),
		CacheDir: defaultPath("SITECRAWL_CACHE", "cache"),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitecrawl"),
		kong.Description("Crawl a published website and map its URLs for import."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sitecrawl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SITECRAWL_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	ws := &Workspace{}
	if m.Workspace != nil {
		*ws = *m.Workspace
	}
	if ws.CacheDir == "" {
		ws.CacheDir = m.CacheDir
	}
	if ws.Logger == nil {
		ws.Logger = logger
	}
	if ws.Processors == nil {
		ws.Processors = sitecrawl.DefaultProcessors()
	}
	if ws.Sitemaps == nil {
		ws.Sitemaps = sitecrawlslog.NewLoggingSitemapService(sitecrawlhttp.NewSitemapService(nil), logger)
	}

	deps.Logger = logger
	deps.Sources = sqlite.NewSourceService(m.DB)
	deps.Schemas = sqlite.NewSchemaService(m.DB)
	deps.Processors = ws.Processors
	deps.Workspace = ws

	return kongCtx.Run(deps)
}

func defaultPath(env, name string) string {
	if path := os.Getenv(env); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	dir := filepath.Join(home, ".sitecrawl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, name)
}
