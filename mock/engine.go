package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.CrawlEngine = (*CrawlEngine)(nil)

// CrawlEngine is a mock implementation of sitecrawl.CrawlEngine.
type CrawlEngine struct {
	CrawlFn func(ctx context.Context, opts sitecrawl.CrawlOptions, handle sitecrawl.DocumentHandler) (*sitecrawl.CrawlReport, error)
}

func (e *CrawlEngine) Crawl(ctx context.Context, opts sitecrawl.CrawlOptions, handle sitecrawl.DocumentHandler) (*sitecrawl.CrawlReport, error) {
	return e.CrawlFn(ctx, opts, handle)
}

var _ sitecrawl.MIMEClassifier = (*MIMEClassifier)(nil)

// MIMEClassifier is a mock implementation of sitecrawl.MIMEClassifier.
type MIMEClassifier struct {
	ClassifyFn func(contentType string, content []byte) string
}

func (c *MIMEClassifier) Classify(contentType string, content []byte) string {
	return c.ClassifyFn(contentType, content)
}
