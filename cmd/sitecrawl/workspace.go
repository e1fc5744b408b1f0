package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/colly"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/fs"
	"github.com/fwojciec/sitecrawl/goquery"
	sitecrawlhttp "github.com/fwojciec/sitecrawl/http"
	"github.com/fwojciec/sitecrawl/mimetype"
	sitecrawlslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/fwojciec/sitecrawl/sqlite"
)

// autoCrawlThreads is the engine concurrency of a crawl started on demand.
const autoCrawlThreads = 4

// crawlDBName is the per-source SQLite file holding the crawl engine's
// visited set, cookies and request queue.
const crawlDBName = "crawl.db"

// Workspace builds the per-source components: the URL list, the crawler and
// the import walker. Each source keeps its state in its own directory under
// CacheDir.
type Workspace struct {
	CacheDir   string
	Logger     *slog.Logger
	Processors *sitecrawl.ProcessorRegistry
	Sitemaps   sitecrawl.SitemapService

	// Fetcher is used by the import walk. Nil selects the HTTP fetcher.
	Fetcher sitecrawl.Fetcher

	// Transport overrides the crawl engine's HTTP transport.
	Transport http.RoundTripper
}

// Dir returns the state directory of source.
func (w *Workspace) Dir(source *sitecrawl.Source) string {
	return source.CacheDir(w.CacheDir)
}

func (w *Workspace) storage(source *sitecrawl.Source) sitecrawl.URLListStorage {
	return sitecrawlslog.NewLoggingURLListStorage(fs.NewURLListStore(w.Dir(source)), w.logger())
}

// URLList returns the URL list of source, loaded lazily from its directory.
func (w *Workspace) URLList(source *sitecrawl.Source) (*crawl.URLList, error) {
	return w.urlList(source, w.storage(source))
}

func (w *Workspace) urlList(source *sitecrawl.Source, storage sitecrawl.URLListStorage) (*crawl.URLList, error) {
	processor, err := w.Processors.Get(source.URLProcessor)
	if err != nil {
		return nil, err
	}
	return crawl.NewURLList(source.BaseURL, storage, processor)
}

// EnableAutoCrawl makes urls crawl source, sitemaps included, the first time
// its state is needed and none has been persisted yet.
func (w *Workspace) EnableAutoCrawl(ctx context.Context, urls *crawl.URLList, source *sitecrawl.Source) {
	urls.AutoCrawl = func() error {
		crawler, closeCache, err := w.Crawler(source, autoCrawlThreads, true)
		if err != nil {
			return err
		}
		defer closeCache()
		w.logger().Info("site not crawled yet, crawling now", "source", source.Name, "url", source.BaseURL)
		_, err = crawler.Crawl(ctx, 0, nil)
		return err
	}
}

// Crawler wires a crawler for source. The returned close function releases
// the engine's database.
func (w *Workspace) Crawler(source *sitecrawl.Source, threads int, sitemaps bool) (*crawl.Crawler, func() error, error) {
	storage := w.storage(source)
	urls, err := w.urlList(source, storage)
	if err != nil {
		return nil, nil, err
	}

	dir := w.Dir(source)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db := sqlite.NewDB(filepath.Join(dir, crawlDBName))
	if err := db.Open(); err != nil {
		return nil, nil, fmt.Errorf("failed to open crawl cache: %w", err)
	}

	engine := &colly.Engine{
		Cache:     sqlite.NewCrawlCache(db),
		Threads:   threads,
		Logger:    w.logger(),
		Transport: w.Transport,
	}

	crawler := &crawl.Crawler{
		URLs:            urls,
		Storage:         storage,
		Engine:          sitecrawlslog.NewLoggingCrawlEngine(engine, w.logger()),
		MIME:            mimetype.NewClassifier(),
		Logger:          w.logger(),
		ExtraURLs:       source.ExtraCrawlURLs,
		ExcludePatterns: source.ExcludePatterns,
	}
	if sitemaps {
		crawler.Sitemaps = w.Sitemaps
	}
	return crawler, db.Close, nil
}

// Walker wires an import walker over the crawled hierarchy of source.
// Sources without schemas use the default schema.
func (w *Workspace) Walker(source *sitecrawl.Source, schemas []*sitecrawl.Schema, transformer sitecrawl.ContentTransformer, processes *sitecrawl.ImportProcessRegistry) (*crawl.Walker, error) {
	urls, err := w.URLList(source)
	if err != nil {
		return nil, err
	}
	if len(schemas) == 0 {
		schemas = []*sitecrawl.Schema{sitecrawl.DefaultSchema(source.ID)}
	}
	matcher, err := sitecrawl.NewSchemaMatcher(schemas, goquery.NewSelectorMatcher())
	if err != nil {
		return nil, err
	}

	fetcher := w.Fetcher
	if fetcher == nil {
		fetcher = sitecrawlslog.NewLoggingFetcher(sitecrawlhttp.NewFetcher(), w.logger())
	}

	return &crawl.Walker{
		URLs:        urls,
		Matcher:     matcher,
		Fetcher:     fetcher,
		Transformer: transformer,
		Processes:   processes,
		PageLimiter: crawl.NewThinkTimeLimiter(crawl.DefaultPageThinkTime),
		FileLimiter: crawl.NewThinkTimeLimiter(crawl.DefaultFileThinkTime),
		Logger:      w.logger(),
	}, nil
}

func (w *Workspace) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.DiscardHandler)
}
