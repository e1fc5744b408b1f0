package sqlite_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/fwojciec/sitecrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlCache_Visited(t *testing.T) {
	t.Parallel()

	t.Run("records visited IDs across the full uint64 range", func(t *testing.T) {
		t.Parallel()

		cache := sqlite.NewCrawlCache(setupTestDB(t))
		ctx := context.Background()

		ids := []uint64{0, 1, math.MaxInt64, math.MaxUint64}
		for _, id := range ids {
			ok, err := cache.IsVisited(ctx, id)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, cache.MarkVisited(ctx, id))
			require.NoError(t, cache.MarkVisited(ctx, id))

			ok, err = cache.IsVisited(ctx, id)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		got, err := cache.VisitedIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, got)
	})
}

func TestCrawlCache_Cookies(t *testing.T) {
	t.Parallel()

	cache := sqlite.NewCrawlCache(setupTestDB(t))
	ctx := context.Background()

	cookies, err := cache.Cookies(ctx, "example.com")
	require.NoError(t, err)
	assert.Empty(t, cookies)

	require.NoError(t, cache.SetCookies(ctx, "example.com", "a=1"))
	require.NoError(t, cache.SetCookies(ctx, "example.com", "a=2"))

	cookies, err = cache.Cookies(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "a=2", cookies)
}

func TestCrawlCache_Queue(t *testing.T) {
	t.Parallel()

	t.Run("pops requests in insertion order", func(t *testing.T) {
		t.Parallel()

		cache := sqlite.NewCrawlCache(setupTestDB(t))
		ctx := context.Background()

		for _, r := range []string{"first", "second", "third"} {
			require.NoError(t, cache.PushRequest(ctx, []byte(r)))
		}

		n, err := cache.QueueSize(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		for _, want := range []string{"first", "second", "third"} {
			got, err := cache.PopRequest(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, string(got))
		}

		got, err := cache.PopRequest(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("queue survives reopening the database", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "crawl.db")
		ctx := context.Background()

		db := sqlite.NewDB(path)
		require.NoError(t, db.Open())
		require.NoError(t, sqlite.NewCrawlCache(db).PushRequest(ctx, []byte("pending")))
		require.NoError(t, db.Close())

		db = sqlite.NewDB(path)
		require.NoError(t, db.Open())
		t.Cleanup(func() { db.Close() })

		got, err := sqlite.NewCrawlCache(db).PopRequest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "pending", string(got))
	})
}

func TestCrawlCache_Reset(t *testing.T) {
	t.Parallel()

	cache := sqlite.NewCrawlCache(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, cache.MarkVisited(ctx, 1))
	require.NoError(t, cache.SetCookies(ctx, "example.com", "a=1"))
	require.NoError(t, cache.PushRequest(ctx, []byte("r")))

	require.NoError(t, cache.Reset(ctx))

	ids, err := cache.VisitedIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	cookies, err := cache.Cookies(ctx, "example.com")
	require.NoError(t, err)
	assert.Empty(t, cookies)
	n, err := cache.QueueSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
