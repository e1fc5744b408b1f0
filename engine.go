package sitecrawl

import (
	"context"
	"regexp"
	"time"
)

// Document is a single response delivered by a CrawlEngine.
type Document struct {
	URL         string
	StatusCode  int
	ContentType string
	Content     []byte

	// Referer is the page on which the link to URL was found.
	Referer string

	// Location is the raw Location header of a redirect response.
	Location string
}

// DocumentHandler receives every fetched document. A returned error aborts
// the crawl.
type DocumentHandler func(doc *Document) error

// CrawlOptions configures a single crawl run.
type CrawlOptions struct {
	// CrawlerID identifies the engine's persisted traversal state.
	CrawlerID string

	// Resume continues the traversal saved under CrawlerID instead of
	// starting over.
	Resume bool

	BaseURL   string
	ExtraURLs []string

	// Exclude patterns are applied before a URL is fetched.
	Exclude []*regexp.Regexp

	// Limit caps the number of requests. Zero means unlimited.
	Limit int
}

// CrawlReport summarizes a crawl run.
type CrawlReport struct {
	LinksFollowed     int
	DocumentsReceived int
	BytesReceived     int64
	Runtime           time.Duration
}

// CrawlEngine traverses a site and delivers each response to a handler.
// Redirects are not followed transparently: the redirect response itself is
// delivered and the engine then fetches the target.
type CrawlEngine interface {
	Crawl(ctx context.Context, opts CrawlOptions, handle DocumentHandler) (*CrawlReport, error)
}

// MIMEClassifier derives a document's MIME type from its Content-Type header
// and, when the header is missing, from its content.
type MIMEClassifier interface {
	Classify(contentType string, content []byte) string
}

// CrawlCache persists an engine's traversal state so an interrupted crawl
// can resume: the set of visited request IDs, cookies per host and the queue
// of pending requests.
type CrawlCache interface {
	MarkVisited(ctx context.Context, id uint64) error
	IsVisited(ctx context.Context, id uint64) (bool, error)
	// VisitedIDs returns every visited request ID.
	VisitedIDs(ctx context.Context) ([]uint64, error)

	Cookies(ctx context.Context, host string) (string, error)
	SetCookies(ctx context.Context, host, cookies string) error

	// PushRequest appends a serialized request to the queue.
	PushRequest(ctx context.Context, request []byte) error
	// PopRequest removes and returns the oldest request. It returns nil
	// when the queue is empty.
	PopRequest(ctx context.Context) ([]byte, error)
	QueueSize(ctx context.Context) (int, error)

	// Reset discards all state.
	Reset(ctx context.Context) error
}
