package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func createSource(t *testing.T, svc *sqlite.SourceService, name string) *sitecrawl.Source {
	t.Helper()
	source := &sitecrawl.Source{Name: name, BaseURL: "https://example.com"}
	require.NoError(t, svc.CreateSource(context.Background(), source))
	return source
}

func TestSourceService_CreateSource(t *testing.T) {
	t.Parallel()

	t.Run("creates source with generated ID and timestamps", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)

		source := &sitecrawl.Source{
			Name:    "intranet",
			BaseURL: "https://intranet.example.com/",
		}

		err := svc.CreateSource(context.Background(), source)
		require.NoError(t, err)

		assert.NotEmpty(t, source.ID, "ID should be generated")
		assert.False(t, source.CreatedAt.IsZero(), "CreatedAt should be set")
		assert.False(t, source.UpdatedAt.IsZero(), "UpdatedAt should be set")
	})

	t.Run("returns error for invalid source", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)

		err := svc.CreateSource(context.Background(), &sitecrawl.Source{})
		require.Error(t, err)
		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)
		createSource(t, svc, "intranet")

		err := svc.CreateSource(context.Background(), &sitecrawl.Source{Name: "intranet", BaseURL: "https://other.com"})
		require.Error(t, err)
		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})
}

func TestSourceService_FindSourceByID(t *testing.T) {
	t.Parallel()

	t.Run("returns source with all fields", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)
		ctx := context.Background()

		source := &sitecrawl.Source{
			Name:            "intranet",
			BaseURL:         "https://intranet.example.com",
			URLProcessor:    "moss",
			ExtraCrawlURLs:  []string{"/orphan", "/sitemap-page"},
			ExcludePatterns: []string{`\.zip$`, `/private/`},
		}
		require.NoError(t, svc.CreateSource(ctx, source))

		found, err := svc.FindSourceByID(ctx, source.ID)
		require.NoError(t, err)
		assert.Equal(t, source.ID, found.ID)
		assert.Equal(t, "intranet", found.Name)
		assert.Equal(t, "https://intranet.example.com", found.BaseURL)
		assert.Equal(t, "moss", found.URLProcessor)
		assert.Equal(t, []string{"/orphan", "/sitemap-page"}, found.ExtraCrawlURLs)
		assert.Equal(t, []string{`\.zip$`, `/private/`}, found.ExcludePatterns)
		assert.Equal(t, source.CreatedAt.Unix(), found.CreatedAt.Unix())
	})

	t.Run("returns ENOTFOUND when not found", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)

		_, err := svc.FindSourceByID(context.Background(), "nonexistent-id")
		require.Error(t, err)
		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	})
}

func TestSourceService_FindSources(t *testing.T) {
	t.Parallel()

	t.Run("returns all sources with empty filter", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)

		for i := 0; i < 3; i++ {
			createSource(t, svc, "source-"+string(rune('a'+i)))
		}

		sources, err := svc.FindSources(context.Background(), sitecrawl.SourceFilter{})
		require.NoError(t, err)
		assert.Len(t, sources, 3)
	})

	t.Run("filters by name", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)
		createSource(t, svc, "alpha")
		createSource(t, svc, "beta")

		name := "alpha"
		sources, err := svc.FindSources(context.Background(), sitecrawl.SourceFilter{Name: &name})
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "alpha", sources[0].Name)
	})

	t.Run("respects limit and offset", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)

		for i := 0; i < 5; i++ {
			createSource(t, svc, "source-"+string(rune('a'+i)))
		}

		sources, err := svc.FindSources(context.Background(), sitecrawl.SourceFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, sources, 2)
	})
}

func TestSourceService_UpdateSource(t *testing.T) {
	t.Parallel()

	t.Run("updates source fields", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)
		ctx := context.Background()

		source := createSource(t, svc, "original")
		originalUpdatedAt := source.UpdatedAt

		newName := "renamed"
		processor := "drop-extensions"
		exclude := []string{`\.pdf$`}
		updated, err := svc.UpdateSource(ctx, source.ID, sitecrawl.SourceUpdate{
			Name:            &newName,
			URLProcessor:    &processor,
			ExcludePatterns: &exclude,
		})
		require.NoError(t, err)

		assert.Equal(t, "renamed", updated.Name)
		assert.Equal(t, "drop-extensions", updated.URLProcessor)
		assert.False(t, updated.UpdatedAt.Before(originalUpdatedAt))

		found, err := svc.FindSourceByID(ctx, source.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{`\.pdf$`}, found.ExcludePatterns)
	})

	t.Run("rejects invalid update", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)
		source := createSource(t, svc, "original")

		bad := "ftp://example.com"
		_, err := svc.UpdateSource(context.Background(), source.ID, sitecrawl.SourceUpdate{BaseURL: &bad})
		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})

	t.Run("returns ENOTFOUND when not found", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)

		name := "test"
		_, err := svc.UpdateSource(context.Background(), "nonexistent-id", sitecrawl.SourceUpdate{Name: &name})
		require.Error(t, err)
		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	})
}

func TestSourceService_DeleteSource(t *testing.T) {
	t.Parallel()

	t.Run("deletes existing source", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)
		ctx := context.Background()

		source := createSource(t, svc, "doomed")

		require.NoError(t, svc.DeleteSource(ctx, source.ID))

		_, err := svc.FindSourceByID(ctx, source.ID)
		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	})

	t.Run("returns ENOTFOUND when not found", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSourceService(db)

		err := svc.DeleteSource(context.Background(), "nonexistent-id")
		require.Error(t, err)
		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	})
}
