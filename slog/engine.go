package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.CrawlEngine = (*LoggingCrawlEngine)(nil)

// LoggingCrawlEngine wraps a CrawlEngine and logs each run.
type LoggingCrawlEngine struct {
	next   sitecrawl.CrawlEngine
	logger *slog.Logger
}

// NewLoggingCrawlEngine creates a new LoggingCrawlEngine.
func NewLoggingCrawlEngine(next sitecrawl.CrawlEngine, logger *slog.Logger) *LoggingCrawlEngine {
	return &LoggingCrawlEngine{next: next, logger: logger}
}

// Crawl logs the run's options, delegates, and logs the report. Documents
// delivered with a status of 400 or above are logged at debug level.
func (e *LoggingCrawlEngine) Crawl(ctx context.Context, opts sitecrawl.CrawlOptions, handle sitecrawl.DocumentHandler) (report *sitecrawl.CrawlReport, err error) {
	logger := e.logger.With("crawler_id", opts.CrawlerID)
	logger.Info("crawl started",
		"url", opts.BaseURL,
		"resume", opts.Resume,
		"seeds", len(opts.ExtraURLs),
		"limit", opts.Limit,
	)

	defer func(begin time.Time) {
		if err != nil {
			logger.Error("crawl stopped", "duration", time.Since(begin), "err", err)
			return
		}
		logger.Info("crawl finished",
			"links", report.LinksFollowed,
			"documents", report.DocumentsReceived,
			"bytes", report.BytesReceived,
			"duration", time.Since(begin),
		)
	}(time.Now())

	return e.next.Crawl(ctx, opts, func(doc *sitecrawl.Document) error {
		if doc.StatusCode >= 400 {
			logger.Debug("error response", "url", doc.URL, "status", doc.StatusCode, "referer", doc.Referer)
		}
		return handle(doc)
	})
}
