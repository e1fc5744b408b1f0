package sitecrawl_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaMatcher_Select(t *testing.T) {
	t.Parallel()

	blog := &sitecrawl.Schema{DataType: sitecrawl.DataTypePage, Priority: 1, AppliesTo: "/blog/.*", MIMETypes: []string{"text/html"}}
	fallback := &sitecrawl.Schema{DataType: sitecrawl.DataTypePage, Priority: 1000, AppliesTo: ".*"}

	t.Run("selects by priority and pattern", func(t *testing.T) {
		t.Parallel()

		// Declared out of order on purpose.
		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{fallback, blog}, nil)
		require.NoError(t, err)

		assert.Same(t, blog, m.Select(sitecrawl.SchemaItem{URL: "/blog/post1", MIME: "text/html"}, false))
		assert.Same(t, fallback, m.Select(sitecrawl.SchemaItem{URL: "/contact", MIME: "text/html"}, false))
	})

	t.Run("pattern is anchored at start", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{blog}, nil)
		require.NoError(t, err)

		assert.Nil(t, m.Select(sitecrawl.SchemaItem{URL: "/archive/blog/x", MIME: "text/html"}, false))
	})

	t.Run("mime type must be declared", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{blog}, nil)
		require.NoError(t, err)

		assert.Nil(t, m.Select(sitecrawl.SchemaItem{URL: "/blog/logo.png", MIME: "image/png"}, false))
	})

	t.Run("unknown mime matches any declared type", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{blog}, nil)
		require.NoError(t, err)

		assert.Same(t, blog, m.Select(sitecrawl.SchemaItem{URL: "/blog/x", MIME: sitecrawl.UnknownMIME}, false))
	})

	t.Run("mime comparison ignores case", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{blog}, nil)
		require.NoError(t, err)

		assert.Same(t, blog, m.Select(sitecrawl.SchemaItem{URL: "/blog/x", MIME: "TEXT/HTML"}, false))
	})

	t.Run("no match returns nil", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher(nil, nil)
		require.NoError(t, err)

		assert.Nil(t, m.Select(sitecrawl.SchemaItem{URL: "/x", MIME: "text/html"}, true))
	})

	t.Run("equal priorities keep declaration order", func(t *testing.T) {
		t.Parallel()

		first := &sitecrawl.Schema{DataType: sitecrawl.DataTypePage, Priority: 5}
		second := &sitecrawl.Schema{DataType: sitecrawl.DataTypeFile, Priority: 5}
		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{first, second}, nil)
		require.NoError(t, err)

		assert.Same(t, first, m.Select(sitecrawl.SchemaItem{URL: "/x"}, false))
		assert.Equal(t, []*sitecrawl.Schema{first, second}, m.Schemas())
	})

	t.Run("invalid pattern is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{{AppliesTo: "("}}, nil)
		require.Error(t, err)
		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})
}

func TestSchemaMatcher_SelectWithContent(t *testing.T) {
	t.Parallel()

	article := &sitecrawl.Schema{DataType: sitecrawl.DataTypePage, Priority: 1, CSSFilter: "article"}
	fallback := sitecrawl.DefaultSchema("src")

	selectors := &mock.SelectorMatcher{
		MatchFn: func(html, selector string) (bool, error) {
			return strings.Contains(html, "<"+selector), nil
		},
	}

	t.Run("content predicate selects matching schema", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{article, fallback}, selectors)
		require.NoError(t, err)

		item := sitecrawl.SchemaItem{URL: "/a", MIME: "text/html", Content: func() (string, error) {
			return "<html><body><article>x</article></body></html>", nil
		}}
		assert.Same(t, article, m.Select(item, true))
	})

	t.Run("falls through when predicate fails", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{article, fallback}, selectors)
		require.NoError(t, err)

		item := sitecrawl.SchemaItem{URL: "/a", MIME: "text/html", Content: func() (string, error) {
			return "<html><body>x</body></html>", nil
		}}
		assert.Same(t, fallback, m.Select(item, true))
	})

	t.Run("content is loaded once", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{article, fallback}, selectors)
		require.NoError(t, err)

		calls := 0
		item := sitecrawl.SchemaItem{URL: "/a", MIME: "text/html", Content: func() (string, error) {
			calls++
			return "<p>nothing</p>", nil
		}}
		assert.Nil(t, m.Select(item, true))
		assert.Equal(t, 1, calls)
	})

	t.Run("load failure never matches filtered schemas", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{article}, selectors)
		require.NoError(t, err)

		item := sitecrawl.SchemaItem{URL: "/a", MIME: "text/html", Content: func() (string, error) {
			return "", errors.New("boom")
		}}
		assert.Nil(t, m.Select(item, true))
	})

	t.Run("content is ignored when not requested", func(t *testing.T) {
		t.Parallel()

		m, err := sitecrawl.NewSchemaMatcher([]*sitecrawl.Schema{article}, selectors)
		require.NoError(t, err)

		assert.Same(t, article, m.Select(sitecrawl.SchemaItem{URL: "/a", MIME: "text/html"}, false))
	})
}

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, sitecrawl.DefaultSchema("s").Validate())

	err := (&sitecrawl.Schema{DataType: sitecrawl.DataTypePage, AppliesTo: "(["}).Validate()
	assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))

	err = (&sitecrawl.Schema{}).Validate()
	assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))

	err = (&sitecrawl.Schema{DataType: sitecrawl.DataTypePage, Rules: []sitecrawl.ImportRule{{FieldName: "Title"}}}).Validate()
	assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
}

func TestParseMIMETypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"text/html", "application/pdf", "image/png"},
		sitecrawl.ParseMIMETypes("text/html, Application/PDF\nimage/png"))
	assert.Empty(t, sitecrawl.ParseMIMETypes("  "))
}

func TestParseDuplicateStrategy(t *testing.T) {
	t.Parallel()

	s, err := sitecrawl.ParseDuplicateStrategy("Skip")
	require.NoError(t, err)
	assert.Equal(t, sitecrawl.DuplicateSkip, s)

	_, err = sitecrawl.ParseDuplicateStrategy("skip")
	assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
}
