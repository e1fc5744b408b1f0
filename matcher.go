package sitecrawl

import (
	"regexp"
	"sort"
	"strings"
)

// SelectorMatcher reports whether markup contains an element matching a CSS
// selector.
type SelectorMatcher interface {
	Match(html, selector string) (bool, error)
}

// SchemaItem is the input to schema selection.
type SchemaItem struct {
	URL  string
	MIME string

	// Content returns the item's markup. It is only called when a candidate
	// schema declares a CSS filter and content checking is requested.
	Content func() (string, error)
}

// SchemaMatcher selects the schema that applies to an item.
// Schemas are tried in ascending priority order; the first match wins.
type SchemaMatcher struct {
	entries   []schemaEntry
	selectors SelectorMatcher
}

type schemaEntry struct {
	schema  *Schema
	pattern *regexp.Regexp
	mimes   map[string]bool
}

// NewSchemaMatcher compiles the schemas. selectors may be nil, in which case
// CSS filters are not evaluated.
func NewSchemaMatcher(schemas []*Schema, selectors SelectorMatcher) (*SchemaMatcher, error) {
	sorted := make([]*Schema, len(schemas))
	copy(sorted, schemas)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	m := &SchemaMatcher{selectors: selectors}
	for _, s := range sorted {
		re, err := regexp.Compile("^(?:" + s.appliesTo() + ")")
		if err != nil {
			return nil, Errorf(EINVALID, "invalid schema URL pattern %q: %v", s.AppliesTo, err)
		}
		var mimes map[string]bool
		if len(s.MIMETypes) > 0 {
			mimes = make(map[string]bool, len(s.MIMETypes))
			for _, t := range s.MIMETypes {
				mimes[strings.ToLower(strings.TrimSpace(t))] = true
			}
		}
		m.entries = append(m.entries, schemaEntry{schema: s, pattern: re, mimes: mimes})
	}
	return m, nil
}

// Select returns the first schema applying to item, or nil if none does.
// When checkContent is true, schemas with a CSS filter only match if the
// item's content contains a matching element; content that cannot be loaded
// never matches.
func (m *SchemaMatcher) Select(item SchemaItem, checkContent bool) *Schema {
	mime := strings.ToLower(item.MIME)

	var content string
	var loaded, loadFailed bool

	for _, e := range m.entries {
		if !e.pattern.MatchString(item.URL) {
			continue
		}
		if e.mimes != nil && mime != UnknownMIME && !e.mimes[mime] {
			continue
		}
		if checkContent && e.schema.CSSFilter != "" && m.selectors != nil {
			if !loaded {
				loaded = true
				if item.Content == nil {
					loadFailed = true
				} else if c, err := item.Content(); err != nil {
					loadFailed = true
				} else {
					content = c
				}
			}
			if loadFailed {
				continue
			}
			ok, err := m.selectors.Match(content, e.schema.CSSFilter)
			if err != nil || !ok {
				continue
			}
		}
		return e.schema
	}
	return nil
}

// Schemas returns the compiled schemas in selection order.
func (m *SchemaMatcher) Schemas() []*Schema {
	schemas := make([]*Schema, len(m.entries))
	for i, e := range m.entries {
		schemas[i] = e.schema
	}
	return schemas
}
