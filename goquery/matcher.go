// Package goquery evaluates CSS selectors against page markup.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.SelectorMatcher = (*SelectorMatcher)(nil)

// SelectorMatcher reports whether markup contains an element matching a CSS
// selector.
type SelectorMatcher struct{}

// NewSelectorMatcher creates a new SelectorMatcher.
func NewSelectorMatcher() *SelectorMatcher {
	return &SelectorMatcher{}
}

// Match parses html and looks for an element matching selector. An invalid
// selector is an EINVALID error.
func (m *SelectorMatcher) Match(html, selector string) (bool, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return false, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid CSS selector %q: %v", selector, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, sitecrawl.Errorf(sitecrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	return doc.FindMatcher(sel).Length() > 0, nil
}

// Title returns the trimmed text of the document's <title>, falling back to
// its first <h1>. Returns "" when neither exists.
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
