package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"golang.org/x/sync/errgroup"
)

// Walker traverses a crawled URL hierarchy depth-first and hands every node
// to the import phase.
type Walker struct {
	URLs        *URLList
	Matcher     *sitecrawl.SchemaMatcher
	Fetcher     sitecrawl.Fetcher
	Transformer sitecrawl.ContentTransformer
	Processes   *sitecrawl.ImportProcessRegistry // optional
	Strategy    sitecrawl.DuplicateStrategy

	// PageLimiter gates page fetches and FileLimiter gates file transforms,
	// both keyed by host. Nil disables the respective limit.
	PageLimiter sitecrawl.DomainLimiter
	FileLimiter sitecrawl.DomainLimiter

	// Concurrency bounds sibling prefetches. Defaults to 4.
	Concurrency int
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// WalkResult holds the outcome of a walk.
type WalkResult struct {
	Imported int
	Skipped  int
	Failed   int
}

// walkItem is a content item plus the outcome of its prefetch.
type walkItem struct {
	item     *sitecrawl.ContentItem
	fetched  bool
	fetchErr error
}

// Walk imports the whole hierarchy starting at "/". It stops early only when
// the context is canceled or the schemas name an unknown import process.
func (w *Walker) Walk(ctx context.Context) (*WalkResult, error) {
	host, err := w.host()
	if err != nil {
		return nil, err
	}

	var result WalkResult
	root, err := w.item("/")
	if err != nil {
		return nil, err
	}

	var parent *sitecrawl.TransformResult
	if root != nil {
		if err := w.prefetch(ctx, host, []*walkItem{root}); err != nil {
			return nil, err
		}
		var descend bool
		parent, descend, err = w.importItem(ctx, host, root, nil, &result)
		if err != nil {
			return nil, err
		}
		if !descend {
			return &result, nil
		}
	}

	if err := w.walkChildren(ctx, host, "/", parent, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (w *Walker) walkChildren(ctx context.Context, host, processed string, parent *sitecrawl.TransformResult, result *WalkResult) error {
	children, err := w.URLs.Children(processed)
	if err != nil {
		return err
	}

	items := make([]*walkItem, 0, len(children))
	for _, child := range children {
		wi, err := w.item(child)
		if err != nil {
			return err
		}
		if wi != nil {
			items = append(items, wi)
		}
	}
	if err := w.prefetch(ctx, host, items); err != nil {
		return err
	}

	for _, wi := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		target, descend, err := w.importItem(ctx, host, wi, parent, result)
		if err != nil {
			return err
		}
		if !descend {
			continue
		}
		if err := w.walkChildren(ctx, host, wi.item.ProcessedURL, target, result); err != nil {
			return err
		}
	}
	return nil
}

// importItem selects a schema and transforms the item. It returns the parent
// for the item's children and whether to descend into them at all. A page
// whose markup could not be fetched counts as failed whatever the schemas.
func (w *Walker) importItem(ctx context.Context, host string, wi *walkItem, parent *sitecrawl.TransformResult, result *WalkResult) (*sitecrawl.TransformResult, bool, error) {
	item := wi.item
	load := func() (string, error) {
		if !wi.fetched {
			return "", errors.New("content not fetched")
		}
		return item.Content, wi.fetchErr
	}

	if wi.fetchErr != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		w.logger().Warn("failed to fetch content", "url", item.AbsoluteURL, "err", wi.fetchErr)
		result.Failed++
		return parent, true, nil
	}

	schema := w.Matcher.Select(sitecrawl.SchemaItem{URL: item.ProcessedURL, MIME: item.MIME, Content: load}, !item.Inferred && isHTML(item.MIME))
	if schema == nil {
		w.logger().Debug("no schema applies", "url", item.ProcessedURL, "mime", item.MIME)
		result.Skipped++
		return parent, true, nil
	}
	item.Schema = schema

	if !isHTML(item.MIME) && w.FileLimiter != nil {
		if err := w.FileLimiter.Wait(ctx, host); err != nil {
			return nil, false, err
		}
	}

	target, err := w.Transformer.Transform(ctx, item, parent, w.Strategy)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		w.logger().Warn("failed to import", "url", item.ProcessedURL, "err", err)
		result.Failed++
		return parent, true, nil
	}
	if target == nil {
		w.logger().Debug("transformer skipped subtree", "url", item.ProcessedURL)
		result.Skipped++
		return nil, false, nil
	}

	for _, name := range schema.Processors {
		if w.Processes == nil {
			return nil, false, sitecrawl.Errorf(sitecrawl.EINVALID, "unknown import process %q", name)
		}
		p, err := w.Processes.Get(name)
		if err != nil {
			return nil, false, err
		}
		if err := p.Process(ctx, item, target, parent, w.Strategy); err != nil {
			w.logger().Warn("import process failed", "url", item.ProcessedURL, "process", name, "err", err)
		}
	}

	w.logger().Info("imported", "url", item.ProcessedURL, "type", schema.DataType)
	result.Imported++
	return target, true, nil
}

// item builds the content item for a processed URL. It returns nil when the
// URL is neither a regular nor an inferred record.
func (w *Walker) item(processed string) (*walkItem, error) {
	base := w.URLs.BaseURL()

	recs, err := w.URLs.RecordsForProcessedURL(processed)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		first := recs[0]
		item := &sitecrawl.ContentItem{
			ProcessedURL: processed,
			RawURL:       first.RawURL,
			AbsoluteURL:  base + first.RawURL,
			MIME:         first.MIME,
		}
		for i, rec := range recs {
			if i > 0 {
				item.Aliases = append(item.Aliases, rec.RawURL)
			}
			aliases, err := w.URLs.URLAliases(base + rec.RawURL)
			if err != nil {
				return nil, err
			}
			item.Aliases = append(item.Aliases, aliases...)
		}
		return &walkItem{item: item}, nil
	}

	inferred, ok, err := w.URLs.Inferred(processed)
	if err != nil || !ok {
		return nil, err
	}
	item := &sitecrawl.ContentItem{
		ProcessedURL: processed,
		AbsoluteURL:  base + processed,
		MIME:         inferred.MIME,
		Inferred:     true,
	}
	if item.Aliases, err = w.URLs.URLAliases(item.AbsoluteURL); err != nil {
		return nil, err
	}
	return &walkItem{item: item, fetched: true}, nil
}

// prefetch fetches the markup of HTML items concurrently. Fetch failures are
// kept on the item; a limiter error such as cancellation stops the batch and
// is returned.
func (w *Walker) prefetch(ctx context.Context, host string, items []*walkItem) error {
	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	delays := w.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, wi := range items {
		if wi.item.Inferred {
			continue
		}
		if !isHTML(wi.item.MIME) {
			wi.fetched = true
			continue
		}
		g.Go(func() error {
			defer func() { wi.fetched = true }()
			if w.PageLimiter != nil {
				if err := w.PageLimiter.Wait(gctx, host); err != nil {
					wi.fetchErr = err
					return err
				}
			}
			html, err := FetchWithRetry(gctx, wi.item.AbsoluteURL, w.Fetcher.Fetch, w.Logger, delays)
			if err != nil {
				wi.fetchErr = fmt.Errorf("fetch %s: %w", wi.item.AbsoluteURL, err)
				return nil
			}
			wi.item.Content = html
			return nil
		})
	}
	return g.Wait()
}

func (w *Walker) host() (string, error) {
	u, err := url.Parse(w.URLs.BaseURL())
	if err != nil {
		return "", sitecrawl.Errorf(sitecrawl.EINVALID, "invalid base URL %q", w.URLs.BaseURL())
	}
	return u.Host, nil
}

func (w *Walker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}

// isHTML reports whether a document of this MIME type has markup to fetch.
// Unknown types are treated as pages.
func isHTML(mime string) bool {
	switch strings.ToLower(mime) {
	case "text/html", "application/xhtml+xml", sitecrawl.UnknownMIME, "":
		return true
	}
	return false
}
