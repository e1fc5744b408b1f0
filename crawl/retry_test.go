package crawl_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noDelays is used for fast unit tests.
var noDelays = []time.Duration{0, 0, 0}

func TestFetchWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on first attempt", func(t *testing.T) {
		t.Parallel()

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			return "<html>content</html>", nil
		}

		html, err := crawl.FetchWithRetry(context.Background(), "https://intranet.example.com", fetch, nil, noDelays)

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", html)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries on failure and succeeds", func(t *testing.T) {
		t.Parallel()

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			if attempts < 4 {
				return "", errors.New("transient error")
			}
			return "<html>success</html>", nil
		}

		html, err := crawl.FetchWithRetry(context.Background(), "https://intranet.example.com", fetch, nil, noDelays)

		require.NoError(t, err)
		assert.Equal(t, "<html>success</html>", html)
		assert.Equal(t, 4, attempts)
	})

	t.Run("returns last error after max retries", func(t *testing.T) {
		t.Parallel()

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			return "", errors.New("persistent error")
		}

		_, err := crawl.FetchWithRetry(context.Background(), "https://intranet.example.com", fetch, nil, noDelays)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "persistent error")
		assert.Equal(t, 4, attempts)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			cancel()
			return "", errors.New("transient error")
		}

		_, err := crawl.FetchWithRetry(ctx, "https://intranet.example.com", fetch, nil, noDelays)

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})

	t.Run("logs retry attempts", func(t *testing.T) {
		t.Parallel()

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("transient error")
			}
			return "<html>success</html>", nil
		}

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		_, err := crawl.FetchWithRetry(context.Background(), "https://intranet.example.com/page", fetch, logger, noDelays)

		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(buf.String(), "retrying fetch"))
		assert.Contains(t, buf.String(), "url=https://example.com/page")
	})

	t.Run("number of attempts matches delay count", func(t *testing.T) {
		t.Parallel()

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			return "", errors.New("always fail")
		}

		_, err := crawl.FetchWithRetry(context.Background(), "https://intranet.example.com", fetch, nil, []time.Duration{0, 0})

		require.Error(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry missing pages", func(t *testing.T) {
		t.Parallel()

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			return "", sitecrawl.Errorf(sitecrawl.ENOTFOUND, "HTTP 404 for %s", url)
		}

		_, err := crawl.FetchWithRetry(context.Background(), "https://intranet.example.com/gone", fetch, nil, noDelays)

		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})

	t.Run("does not retry invalid URLs", func(t *testing.T) {
		t.Parallel()

		var attempts int
		fetch := func(ctx context.Context, url string) (string, error) {
			attempts++
			return "", sitecrawl.Errorf(sitecrawl.EINVALID, "invalid URL %q", url)
		}

		_, err := crawl.FetchWithRetry(context.Background(), "::", fetch, nil, noDelays)

		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})
}
