package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/mock"
	sitecrawlslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingCrawlEngine_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("logs start and report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.CrawlEngine{
			CrawlFn: func(ctx context.Context, opts sitecrawl.CrawlOptions, handle sitecrawl.DocumentHandler) (*sitecrawl.CrawlReport, error) {
				return &sitecrawl.CrawlReport{LinksFollowed: 3, DocumentsReceived: 2, BytesReceived: 512}, nil
			},
		}

		engine := sitecrawlslog.NewLoggingCrawlEngine(inner, logger)
		report, err := engine.Crawl(context.Background(), sitecrawl.CrawlOptions{
			CrawlerID: "abc",
			BaseURL:   "https://example.com/",
			Resume:    true,
		}, func(*sitecrawl.Document) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, 3, report.LinksFollowed)
		output := buf.String()
		assert.Contains(t, output, "crawl started")
		assert.Contains(t, output, "crawler_id=abc")
		assert.Contains(t, output, "resume=true")
		assert.Contains(t, output, "crawl finished")
		assert.Contains(t, output, "links=3")
		assert.Contains(t, output, "documents=2")
		assert.Contains(t, output, "bytes=512")
	})

	t.Run("passes documents through and logs error responses", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.CrawlEngine{
			CrawlFn: func(ctx context.Context, opts sitecrawl.CrawlOptions, handle sitecrawl.DocumentHandler) (*sitecrawl.CrawlReport, error) {
				if err := handle(&sitecrawl.Document{URL: "https://example.com/", StatusCode: 200}); err != nil {
					return nil, err
				}
				if err := handle(&sitecrawl.Document{URL: "https://example.com/gone", StatusCode: 404, Referer: "https://example.com/"}); err != nil {
					return nil, err
				}
				return &sitecrawl.CrawlReport{}, nil
			},
		}

		var seen []string
		engine := sitecrawlslog.NewLoggingCrawlEngine(inner, logger)
		_, err := engine.Crawl(context.Background(), sitecrawl.CrawlOptions{}, func(doc *sitecrawl.Document) error {
			seen = append(seen, doc.URL)
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/", "https://example.com/gone"}, seen)
		output := buf.String()
		assert.Contains(t, output, "error response")
		assert.Contains(t, output, "status=404")
		assert.NotContains(t, output, "status=200")
	})

	t.Run("logs error when the crawl stops", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.CrawlEngine{
			CrawlFn: func(ctx context.Context, opts sitecrawl.CrawlOptions, handle sitecrawl.DocumentHandler) (*sitecrawl.CrawlReport, error) {
				return nil, errors.New("interrupted")
			},
		}

		_, err := sitecrawlslog.NewLoggingCrawlEngine(inner, logger).Crawl(context.Background(), sitecrawl.CrawlOptions{}, nil)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=ERROR")
		assert.Contains(t, output, "crawl stopped")
		assert.Contains(t, output, "err=interrupted")
	})
}
