// Package colly implements sitecrawl.CrawlEngine on top of the colly
// scraping framework. Traversal state lives in a sitecrawl.CrawlCache so an
// interrupted crawl can resume where it stopped.
package colly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/queue"
)

// DefaultUserAgent identifies the crawler to servers.
const DefaultUserAgent = "sitecrawl/1.0"

// DefaultThreads is the number of concurrent requests.
const DefaultThreads = 4

// DefaultRequestTimeout bounds a single request.
const DefaultRequestTimeout = 30 * time.Second

// linkSelector matches every element whose attribute may point at another
// document of the site.
const linkSelector = "a[href], area[href], img[src], iframe[src], frame[src]"

var errEmptyQueue = errors.New("request queue is empty")

var _ sitecrawl.CrawlEngine = (*Engine)(nil)

// Engine crawls a site with colly.
//
// Redirects are never followed by the HTTP client. The redirect response is
// delivered to the handler and its target, when it lies within the site,
// is queued like any other discovered link.
type Engine struct {
	Cache          sitecrawl.CrawlCache
	Threads        int
	UserAgent      string
	RequestTimeout time.Duration
	Logger         *slog.Logger

	// Transport overrides the HTTP transport. Nil uses the default.
	Transport http.RoundTripper
}

// Crawl traverses the site from opts.BaseURL and the extra seeds. It returns
// the context's error when ctx is cancelled; the pending queue stays in the
// cache for a later run with opts.Resume.
func (e *Engine) Crawl(ctx context.Context, opts sitecrawl.CrawlOptions, handle sitecrawl.DocumentHandler) (*sitecrawl.CrawlReport, error) {
	if e.Cache == nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINTERNAL, "crawl cache is not configured")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Host == "" {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid base URL: %s", opts.BaseURL)
	}
	logger := e.logger().With("crawler_id", opts.CrawlerID)

	if !opts.Resume {
		if err := e.Cache.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset crawl cache: %w", err)
		}
	}

	crawlCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		handleErr error
		errOnce   sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() {
			handleErr = err
			cancel()
		})
	}

	c := colly.NewCollector(
		colly.StdlibContext(crawlCtx),
		colly.ParseHTTPErrorResponse(),
		colly.AllowedDomains(siteHosts(base.Hostname())...),
		colly.UserAgent(e.userAgent()),
	)
	if len(opts.Exclude) > 0 {
		c.DisallowedURLFilters = opts.Exclude
	}
	c.SetClient(&http.Client{
		Transport: e.transport(),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	})
	c.SetRequestTimeout(e.requestTimeout())
	if err := c.SetStorage(newVisitedStorage(crawlCtx, e.Cache, logger)); err != nil {
		return nil, fmt.Errorf("failed to load crawl cache: %w", err)
	}

	q, err := queue.New(e.threads(), &queueStorage{ctx: crawlCtx, cache: e.Cache})
	if err != nil {
		return nil, fmt.Errorf("failed to create request queue: %w", err)
	}

	var (
		requests  atomic.Int64
		followed  atomic.Int64
		documents atomic.Int64
		received  atomic.Int64
	)

	enqueue := func(link, referer string) {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		u.Fragment = ""
		if !sameSite(u.Hostname(), base.Hostname()) || excluded(opts, u.String()) {
			return
		}
		if visited, _ := c.HasVisited(u.String()); visited {
			return
		}
		headers := http.Header{}
		if referer != "" {
			headers.Set("Referer", referer)
		}
		if err := q.AddRequest(&colly.Request{URL: u, Method: http.MethodGet, Headers: &headers}); err != nil {
			logger.Warn("failed to queue request", "url", u.String(), "err", err)
		}
	}

	c.OnRequest(func(r *colly.Request) {
		if opts.Limit > 0 && requests.Add(1) > int64(opts.Limit) {
			r.Abort()
			return
		}
		followed.Add(1)
		logger.Debug("fetching", "url", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		doc := &sitecrawl.Document{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Content:     r.Body,
			Referer:     r.Request.Headers.Get("Referer"),
			Location:    r.Headers.Get("Location"),
		}
		if r.StatusCode >= 200 && r.StatusCode <= 299 {
			documents.Add(1)
			received.Add(int64(len(r.Body)))
		}
		if err := handle(doc); err != nil {
			fail(err)
			return
		}
		if r.StatusCode >= 300 && r.StatusCode <= 399 && doc.Location != "" {
			enqueue(r.Request.AbsoluteURL(doc.Location), doc.URL)
		}
	})

	c.OnHTML(linkSelector, func(el *colly.HTMLElement) {
		if el.Response.StatusCode < 200 || el.Response.StatusCode > 299 {
			return
		}
		ref := el.Attr("href")
		if ref == "" {
			ref = el.Attr("src")
		}
		if ref == "" {
			return
		}
		enqueue(el.Request.AbsoluteURL(ref), el.Request.URL.String())
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Debug("request failed", "url", r.Request.URL.String(), "err", err)
	})

	seeds := append([]string{opts.BaseURL}, opts.ExtraURLs...)
	size, err := e.Cache.QueueSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read request queue: %w", err)
	}
	if opts.Resume && size > 0 {
		logger.Info("resuming crawl", "pending", size)
	}
	for _, seed := range seeds {
		enqueue(seed, "")
	}

	if err := q.Run(c); err != nil {
		return nil, fmt.Errorf("crawl queue: %w", err)
	}

	report := &sitecrawl.CrawlReport{
		LinksFollowed:     int(followed.Load()),
		DocumentsReceived: int(documents.Load()),
		BytesReceived:     received.Load(),
	}
	if handleErr != nil {
		return report, handleErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (e *Engine) threads() int {
	if e.Threads > 0 {
		return e.Threads
	}
	return DefaultThreads
}

func (e *Engine) userAgent() string {
	if e.UserAgent != "" {
		return e.UserAgent
	}
	return DefaultUserAgent
}

func (e *Engine) requestTimeout() time.Duration {
	if e.RequestTimeout > 0 {
		return e.RequestTimeout
	}
	return DefaultRequestTimeout
}

func (e *Engine) transport() http.RoundTripper {
	if e.Transport != nil {
		return e.Transport
	}
	return http.DefaultTransport
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// siteHosts returns the host with and without its www. prefix.
func siteHosts(host string) []string {
	host = strings.ToLower(host)
	bare := strings.TrimPrefix(host, "www.")
	return []string{bare, "www." + bare}
}

func sameSite(host, base string) bool {
	strip := func(h string) string { return strings.TrimPrefix(strings.ToLower(h), "www.") }
	return strip(host) == strip(base)
}

func excluded(opts sitecrawl.CrawlOptions, u string) bool {
	for _, re := range opts.Exclude {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}
