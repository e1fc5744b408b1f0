package crawl_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ sitecrawl.DomainLimiter = (*crawl.DomainLimiter)(nil)

func TestThinkTimeLimiter(t *testing.T) {
	t.Parallel()

	t.Run("first request to a host does not wait", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewThinkTimeLimiter(crawl.DefaultPageThinkTime)

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "intranet.example.com"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("spaces requests to the same host", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewThinkTimeLimiter(100 * time.Millisecond)
		require.NoError(t, limiter.Wait(context.Background(), "intranet.example.com"))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "intranet.example.com"))
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("hosts are limited independently", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewThinkTimeLimiter(time.Second)
		require.NoError(t, limiter.Wait(context.Background(), "intranet.example.com"))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background(), "archive.example.com"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("zero think time never waits", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewThinkTimeLimiter(0)

		start := time.Now()
		for i := 0; i < 20; i++ {
			require.NoError(t, limiter.Wait(context.Background(), "intranet.example.com"))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("returns the context error while waiting", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewThinkTimeLimiter(time.Hour)
		require.NoError(t, limiter.Wait(context.Background(), "intranet.example.com"))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		assert.Error(t, limiter.Wait(ctx, "intranet.example.com"))
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewThinkTimeLimiter(crawl.DefaultFileThinkTime)
		hosts := []string{"a.example.com", "b.example.com", "c.example.com"}

		var wg sync.WaitGroup
		var done atomic.Int32
		for i := 0; i < 15; i++ {
			wg.Add(1)
			go func(host string) {
				defer wg.Done()
				if limiter.Wait(context.Background(), host) == nil {
					done.Add(1)
				}
			}(hosts[i%len(hosts)])
		}
		wg.Wait()

		assert.Equal(t, int32(15), done.Load())
	})
}
