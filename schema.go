package sitecrawl

import (
	"context"
	"regexp"
	"strings"
)

// Schema defaults.
const (
	DefaultAppliesTo      = ".*"
	DefaultCSSFilter      = "body"
	DefaultSchemaPriority = 1000000
)

// DataType names the kind of object a schema imports into.
type DataType string

const (
	DataTypePage  DataType = "Page"
	DataTypeFile  DataType = "File"
	DataTypeImage DataType = "Image"
)

// Schema is an ordered rule set mapping URLs and MIME types to an import
// target and its field extraction rules.
type Schema struct {
	ID       string   `json:"id"        yaml:"-"`
	SourceID string   `json:"sourceId"  yaml:"-"`
	DataType DataType `json:"dataType"  yaml:"dataType"`

	// Priority orders schemas; the lowest value is tried first.
	Priority int `json:"priority" yaml:"priority"`

	// AppliesTo is a regular expression matched against the start of the URL.
	AppliesTo string `json:"appliesTo" yaml:"appliesTo"`

	// MIMETypes restricts the schema to these types. Empty matches all.
	MIMETypes []string `json:"mimeTypes" yaml:"mimeTypes"`

	// CSSFilter, when set, requires the fetched page to contain at least one
	// element matching the selector.
	CSSFilter string `json:"cssFilter" yaml:"cssFilter"`

	Rules []ImportRule `json:"rules" yaml:"rules"`

	// Processors are registry names of ImportProcess steps run after the
	// transformer.
	Processors []string `json:"processors" yaml:"processors"`
}

// ImportRule maps a CSS selector to a field of the imported object.
// Rules are evaluated by the downstream extractor.
type ImportRule struct {
	FieldName          string `json:"fieldName"          yaml:"fieldName"`
	CSSSelector        string `json:"cssSelector"        yaml:"cssSelector"`
	ExcludeCSSSelector string `json:"excludeCssSelector" yaml:"excludeCssSelector"`
	Attribute          string `json:"attribute"          yaml:"attribute"`
	PlainText          bool   `json:"plainText"          yaml:"plainText"`
	OuterHTML          bool   `json:"outerHtml"          yaml:"outerHtml"`
}

// DefaultSchema returns the fallback schema used when a source has none:
// every HTML page with a body is imported as a Page.
func DefaultSchema(sourceID string) *Schema {
	return &Schema{
		SourceID:  sourceID,
		DataType:  DataTypePage,
		Priority:  DefaultSchemaPriority,
		AppliesTo: DefaultAppliesTo,
		MIMETypes: []string{"text/html"},
		CSSFilter: DefaultCSSFilter,
	}
}

// Validate returns an error if the schema contains invalid fields.
func (s *Schema) Validate() error {
	if s.DataType == "" {
		return Errorf(EINVALID, "schema data type required")
	}
	if _, err := regexp.Compile("^(?:" + s.appliesTo() + ")"); err != nil {
		return Errorf(EINVALID, "invalid schema URL pattern %q: %v", s.AppliesTo, err)
	}
	for _, r := range s.Rules {
		if r.FieldName == "" {
			return Errorf(EINVALID, "schema rule field name required")
		}
		if r.CSSSelector == "" {
			return Errorf(EINVALID, "schema rule %q requires a CSS selector", r.FieldName)
		}
	}
	return nil
}

func (s *Schema) appliesTo() string {
	if s.AppliesTo == "" {
		return DefaultAppliesTo
	}
	return s.AppliesTo
}

// ParseMIMETypes splits free text on whitespace and commas into a list of
// lower-cased MIME types.
func ParseMIMETypes(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	var types []string
	for _, f := range fields {
		types = append(types, strings.ToLower(f))
	}
	return types
}

// SchemaService represents a service for managing import schemas.
type SchemaService interface {
	// CreateSchema creates a new schema for a source.
	CreateSchema(ctx context.Context, schema *Schema) error

	// FindSchemas retrieves the schemas of a source ordered by priority.
	FindSchemas(ctx context.Context, sourceID string) ([]*Schema, error)

	// DeleteSchemas removes all schemas of a source.
	DeleteSchemas(ctx context.Context, sourceID string) error
}
