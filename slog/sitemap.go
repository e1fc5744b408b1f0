package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging. It applies the
// URL filter itself so that every seed the filter drops can be logged.
type LoggingSitemapService struct {
	next   sitecrawl.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next sitecrawl.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs asks the wrapped service for every sitemap seed, drops the
// ones filter rejects and logs the outcome.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *sitecrawl.URLFilter) (urls []string, err error) {
	var excluded int
	defer func(begin time.Time) {
		s.logger.Info("sitemap discovery",
			"url", baseURL,
			"seeds", len(urls),
			"excluded", excluded,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())

	found, err := s.next.DiscoverURLs(ctx, baseURL, nil)
	if err != nil {
		return nil, err
	}
	urls = make([]string, 0, len(found))
	for _, u := range found {
		if !filter.Match(u) {
			excluded++
			s.logger.Debug("sitemap seed excluded", "url", u)
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}
