// Package crawl records a site's URL structure and walks it for import.
// The Crawler drives a crawl engine and feeds every response into a URLList;
// the Walker traverses the resulting hierarchy during the import phase.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
)

// Crawler records the responses of a crawl engine in a URLList.
//
// Every mutation is persisted before the engine proceeds, and the crawl is
// marked in progress until it finishes, so an interrupted crawl can resume.
type Crawler struct {
	URLs     *URLList
	Storage  sitecrawl.URLListStorage
	Engine   sitecrawl.CrawlEngine
	Sitemaps sitecrawl.SitemapService // optional, adds sitemap URLs as seeds
	MIME     sitecrawl.MIMEClassifier // optional, defaults to the Content-Type header
	Logger   *slog.Logger

	ExtraURLs       []string
	ExcludePatterns []string

	// Timeout is the wall-clock ceiling for a whole crawl. Zero means none.
	Timeout time.Duration

	// NewCrawlerID generates resumption tokens. Defaults to random UUIDs.
	NewCrawlerID func() string

	mu sync.Mutex
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	CrawlerID string
	URL       string // relative URL of the document
	Target    string // relative redirect target
	Status    int
	Referer   string
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressResumed
	ProgressDocument
	ProgressRedirect
	ProgressSkipped
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawl traverses the site and rebuilds the URL list. Limit caps the number
// of requests; zero means unlimited. If a previous crawl was interrupted it
// is resumed instead of restarted.
func (c *Crawler) Crawl(ctx context.Context, limit int, progress ProgressFunc) (*sitecrawl.CrawlReport, error) {
	begin := time.Now()
	if progress == nil {
		progress = func(ProgressEvent) {}
	}

	exclude, err := sitecrawl.CompilePatterns(c.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	id, resumed, err := c.start()
	if err != nil {
		return nil, err
	}
	if resumed {
		progress(ProgressEvent{Type: ProgressResumed, CrawlerID: id})
	} else {
		progress(ProgressEvent{Type: ProgressStarted, CrawlerID: id})
	}

	baseURL := c.URLs.BaseURL()
	seeds := c.seeds(ctx, baseURL, exclude)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	opts := sitecrawl.CrawlOptions{
		CrawlerID: id,
		Resume:    resumed,
		BaseURL:   baseURL + "/",
		ExtraURLs: seeds,
		Exclude:   exclude,
		Limit:     limit,
	}
	report, err := c.Engine.Crawl(ctx, opts, func(doc *sitecrawl.Document) error {
		return c.handleDocument(doc, progress)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && c.Timeout > 0 {
			return nil, fmt.Errorf("crawl exceeded time limit of %s: %w", c.Timeout, err)
		}
		return nil, fmt.Errorf("crawl: %w", err)
	}

	if err := c.finish(); err != nil {
		return nil, err
	}

	if report == nil {
		report = &sitecrawl.CrawlReport{}
	}
	report.Runtime = time.Since(begin)
	progress(ProgressEvent{Type: ProgressFinished, CrawlerID: id})
	return report, nil
}

// start writes the resumption marker, or picks up the one left by an
// interrupted crawl together with whatever state it persisted.
func (c *Crawler) start() (id string, resumed bool, err error) {
	if c.Storage.HasCrawlerID() {
		id, err := c.Storage.CrawlerID()
		if err == nil && id != "" {
			state, err := c.Storage.Load()
			if err != nil {
				c.logger().Warn("partial URL list unreadable, resuming with an empty list", "err", err)
				state = nil
			}
			c.URLs.Reset(state)
			return id, true, nil
		}
		c.logger().Warn("resumption marker unreadable, starting a new crawl", "err", err)
	}

	id = c.newCrawlerID()
	if err := c.Storage.SetCrawlerID(id); err != nil {
		return "", false, fmt.Errorf("failed to write resumption marker: %w", err)
	}
	c.URLs.Reset(nil)
	if err := c.URLs.Save(); err != nil {
		return "", false, fmt.Errorf("failed to save URL list: %w", err)
	}
	return id, false, nil
}

// finish reconciles aliases, persists the final state and removes the
// marker. The marker goes last so a failure leaves the crawl resumable.
func (c *Crawler) finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.URLs.ReconcileAliases(); err != nil {
		return err
	}
	if err := c.URLs.Save(); err != nil {
		return fmt.Errorf("failed to save URL list: %w", err)
	}
	if err := c.Storage.ClearCrawlerID(); err != nil {
		return fmt.Errorf("failed to remove resumption marker: %w", err)
	}
	return nil
}

func (c *Crawler) seeds(ctx context.Context, baseURL string, exclude []*regexp.Regexp) []string {
	var seeds []string
	for _, u := range c.ExtraURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if strings.HasPrefix(u, "/") {
			u = baseURL + u
		}
		seeds = append(seeds, u)
	}

	if c.Sitemaps != nil {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, baseURL, sitecrawl.NewExcludeFilter(exclude))
		if err != nil {
			c.logger().Warn("sitemap discovery failed", "url", baseURL, "err", err)
		} else {
			seeds = append(seeds, urls...)
		}
	}
	return seeds
}

func (c *Crawler) handleDocument(doc *sitecrawl.Document, progress ProgressFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case doc.StatusCode < 200:
		return nil
	case doc.StatusCode >= 300 && doc.StatusCode <= 399:
		return c.handleRedirect(doc, progress)
	case doc.StatusCode >= 400:
		c.handleFailure(doc, progress)
		return nil
	default:
		return c.handleSuccess(doc, progress)
	}
}

func (c *Crawler) handleSuccess(doc *sitecrawl.Document, progress ProgressFunc) error {
	rel, err := c.URLs.RelativizeURL(doc.URL)
	if err != nil {
		c.logger().Debug("ignoring document outside the site", "url", doc.URL)
		return nil
	}

	mime := doc.ContentType
	if c.MIME != nil {
		mime = c.MIME.Classify(doc.ContentType, doc.Content)
	}
	if mime == "" {
		mime = sitecrawl.UnknownMIME
	}

	if err := c.URLs.AddAbsoluteURL(doc.URL, mime, ComputeHash(doc.Content)); err != nil {
		return err
	}
	if err := c.URLs.Save(); err != nil {
		return fmt.Errorf("failed to save URL list: %w", err)
	}

	progress(ProgressEvent{Type: ProgressDocument, URL: rel, Status: doc.StatusCode, Referer: doc.Referer})
	return nil
}

func (c *Crawler) handleRedirect(doc *sitecrawl.Document, progress ProgressFunc) error {
	rel, err := c.URLs.RelativizeURL(doc.URL)
	if err != nil {
		return nil
	}

	target, err := resolveReference(doc.URL, doc.Location)
	if err != nil {
		c.logger().Debug("ignoring redirect without a usable location", "url", rel, "location", doc.Location)
		return nil
	}
	dest, err := c.URLs.RelativizeURL(target)
	if err != nil {
		c.logger().Debug("dropping cross-site redirect", "url", rel, "target", target)
		return nil
	}
	if dest == rel {
		return nil
	}

	if err := c.URLs.AddURLAlias(dest, rel); err != nil {
		return err
	}
	if err := c.URLs.Save(); err != nil {
		return fmt.Errorf("failed to save URL list: %w", err)
	}

	progress(ProgressEvent{Type: ProgressRedirect, URL: rel, Target: dest, Status: doc.StatusCode, Referer: doc.Referer})
	return nil
}

func (c *Crawler) handleFailure(doc *sitecrawl.Document, progress ProgressFunc) {
	rel, err := c.URLs.RelativizeURL(doc.URL)
	if err != nil {
		rel = doc.URL
	}
	c.logger().Warn(fmt.Sprintf("skipped %s as it's %d found at %s", rel, doc.StatusCode, doc.Referer),
		"url", doc.URL,
		"status", doc.StatusCode,
		"referer", doc.Referer,
	)
	progress(ProgressEvent{Type: ProgressSkipped, URL: rel, Status: doc.StatusCode, Referer: doc.Referer})
}

func (c *Crawler) newCrawlerID() string {
	if c.NewCrawlerID != nil {
		return c.NewCrawlerID()
	}
	return uuid.New().String()
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// resolveReference resolves a Location header against the URL it was
// returned for.
func resolveReference(base, location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", errors.New("empty location")
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
