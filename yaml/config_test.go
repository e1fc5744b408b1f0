package yaml_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
sources:
  - name: intranet
    baseUrl: https://intranet.example.com/
    urlProcessor: moss
    extraCrawlUrls: [/orphan]
    excludePatterns: ['\.zip$']
    schemas:
      - dataType: Page
        appliesTo: /news/
        mimeTypes: text/html, Application/XHTML+XML
        priority: 10
        cssFilter: article
        rules:
          - fieldName: title
            cssSelector: h1
            plainText: true
        processors: [attachments]
      - dataType: File
        mimeTypes: [application/pdf]
      - dataType: Image
        priority: 100
  - name: archive
    baseUrl: https://archive.example.com
`

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("decodes sources and schemas", func(t *testing.T) {
		t.Parallel()

		cfg, err := yaml.Decode(strings.NewReader(sample))
		require.NoError(t, err)
		require.Len(t, cfg.Sources, 2)

		intranet := cfg.Sources[0]
		assert.Equal(t, "intranet", intranet.Source.Name)
		assert.Equal(t, "https://intranet.example.com/", intranet.Source.BaseURL)
		assert.Equal(t, "moss", intranet.Source.URLProcessor)
		assert.Equal(t, []string{"/orphan"}, intranet.Source.ExtraCrawlURLs)
		assert.Equal(t, []string{`\.zip$`}, intranet.Source.ExcludePatterns)

		require.Len(t, intranet.Schemas, 3)
		news := intranet.Schemas[0]
		assert.Equal(t, sitecrawl.DataTypePage, news.DataType)
		assert.Equal(t, "/news/", news.AppliesTo)
		assert.Equal(t, []string{"text/html", "application/xhtml+xml"}, news.MIMETypes)
		assert.Equal(t, 10, news.Priority)
		assert.Equal(t, "article", news.CSSFilter)
		assert.Equal(t, []sitecrawl.ImportRule{{FieldName: "title", CSSSelector: "h1", PlainText: true}}, news.Rules)
		assert.Equal(t, []string{"attachments"}, news.Processors)

		assert.Equal(t, []string{"application/pdf"}, intranet.Schemas[1].MIMETypes)
		assert.Equal(t, 11, intranet.Schemas[1].Priority, "priority continues from the previous schema")
		assert.Equal(t, 100, intranet.Schemas[2].Priority)

		assert.Empty(t, cfg.Sources[1].Schemas)
	})

	t.Run("defaults data type to Page", func(t *testing.T) {
		t.Parallel()

		cfg, err := yaml.Decode(strings.NewReader(`
sources:
  - name: s
    baseUrl: https://example.com
    schemas:
      - appliesTo: /
`))
		require.NoError(t, err)
		assert.Equal(t, sitecrawl.DataTypePage, cfg.Sources[0].Schemas[0].DataType)
	})

	t.Run("accepts an empty document", func(t *testing.T) {
		t.Parallel()

		cfg, err := yaml.Decode(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, cfg.Sources)
	})

	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "rejects unknown keys",
			doc:  "sources:\n  - name: s\n    baseUrl: https://example.com\n    depth: 3\n",
			msg:  "depth",
		},
		{
			name: "rejects invalid source",
			doc:  "sources:\n  - name: s\n    baseUrl: ftp://example.com\n",
			msg:  "source 1",
		},
		{
			name: "rejects duplicate names",
			doc:  "sources:\n  - name: s\n    baseUrl: https://a.com\n  - name: s\n    baseUrl: https://b.com\n",
			msg:  "duplicate source name",
		},
		{
			name: "rejects invalid schema pattern",
			doc:  "sources:\n  - name: s\n    baseUrl: https://a.com\n    schemas:\n      - appliesTo: '/('\n",
			msg:  "schema 1",
		},
		{
			name: "rejects mapping as mime types",
			doc:  "sources:\n  - name: s\n    baseUrl: https://a.com\n    schemas:\n      - mimeTypes: {a: b}\n",
			msg:  "mimeTypes",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := yaml.Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
			assert.Contains(t, sitecrawl.ErrorMessage(err), tt.msg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sitecrawl.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

		cfg, err := yaml.LoadConfig(path)
		require.NoError(t, err)
		assert.Len(t, cfg.Sources, 2)
	})

	t.Run("returns ENOTFOUND for missing file", func(t *testing.T) {
		t.Parallel()

		_, err := yaml.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	})
}
