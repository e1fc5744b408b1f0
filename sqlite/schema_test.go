package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaService_CreateAndFind(t *testing.T) {
	t.Parallel()

	t.Run("round trips all fields", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		source := createSource(t, sqlite.NewSourceService(db), "intranet")
		svc := sqlite.NewSchemaService(db)
		ctx := context.Background()

		schema := &sitecrawl.Schema{
			SourceID:  source.ID,
			DataType:  sitecrawl.DataTypePage,
			Priority:  1,
			AppliesTo: "/blog/.*",
			MIMETypes: []string{"text/html", "application/xhtml+xml"},
			CSSFilter: "article",
			Rules: []sitecrawl.ImportRule{
				{FieldName: "Title", CSSSelector: "h1", PlainText: true},
				{FieldName: "Content", CSSSelector: "article", ExcludeCSSSelector: ".share", OuterHTML: true},
			},
			Processors: []string{"images"},
		}
		require.NoError(t, svc.CreateSchema(ctx, schema))
		assert.NotEmpty(t, schema.ID)

		found, err := svc.FindSchemas(ctx, source.ID)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, schema, found[0])
	})

	t.Run("orders by priority then creation", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		source := createSource(t, sqlite.NewSourceService(db), "intranet")
		svc := sqlite.NewSchemaService(db)
		ctx := context.Background()

		for _, s := range []*sitecrawl.Schema{
			{SourceID: source.ID, DataType: sitecrawl.DataTypePage, Priority: 1000, AppliesTo: "fallback"},
			{SourceID: source.ID, DataType: sitecrawl.DataTypeFile, Priority: 5, AppliesTo: "first"},
			{SourceID: source.ID, DataType: sitecrawl.DataTypeImage, Priority: 5, AppliesTo: "second"},
		} {
			require.NoError(t, svc.CreateSchema(ctx, s))
		}

		found, err := svc.FindSchemas(ctx, source.ID)
		require.NoError(t, err)
		require.Len(t, found, 3)
		assert.Equal(t, "first", found[0].AppliesTo)
		assert.Equal(t, "second", found[1].AppliesTo)
		assert.Equal(t, "fallback", found[2].AppliesTo)
	})

	t.Run("rejects invalid schema", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		source := createSource(t, sqlite.NewSourceService(db), "intranet")
		svc := sqlite.NewSchemaService(db)

		err := svc.CreateSchema(context.Background(), &sitecrawl.Schema{SourceID: source.ID, DataType: sitecrawl.DataTypePage, AppliesTo: "(["})
		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})

	t.Run("requires an existing source", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSchemaService(db)

		err := svc.CreateSchema(context.Background(), &sitecrawl.Schema{SourceID: "missing", DataType: sitecrawl.DataTypePage})
		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	})
}

func TestSchemaService_DeleteSchemas(t *testing.T) {
	t.Parallel()

	t.Run("removes schemas of one source only", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		sources := sqlite.NewSourceService(db)
		a := createSource(t, sources, "a")
		b := createSource(t, sources, "b")
		svc := sqlite.NewSchemaService(db)
		ctx := context.Background()

		require.NoError(t, svc.CreateSchema(ctx, sitecrawl.DefaultSchema(a.ID)))
		require.NoError(t, svc.CreateSchema(ctx, sitecrawl.DefaultSchema(b.ID)))

		require.NoError(t, svc.DeleteSchemas(ctx, a.ID))

		found, err := svc.FindSchemas(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, found)
		found, err = svc.FindSchemas(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("deleting a source cascades to its schemas", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		sources := sqlite.NewSourceService(db)
		source := createSource(t, sources, "a")
		svc := sqlite.NewSchemaService(db)
		ctx := context.Background()

		require.NoError(t, svc.CreateSchema(ctx, sitecrawl.DefaultSchema(source.ID)))
		require.NoError(t, sources.DeleteSource(ctx, source.ID))

		found, err := svc.FindSchemas(ctx, source.ID)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}
