package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.SelectorMatcher = (*SelectorMatcher)(nil)

// SelectorMatcher is a mock implementation of sitecrawl.SelectorMatcher.
type SelectorMatcher struct {
	MatchFn func(html, selector string) (bool, error)
}

func (m *SelectorMatcher) Match(html, selector string) (bool, error) {
	return m.MatchFn(html, selector)
}

var _ sitecrawl.ContentTransformer = (*ContentTransformer)(nil)

// ContentTransformer is a mock implementation of sitecrawl.ContentTransformer.
type ContentTransformer struct {
	TransformFn func(ctx context.Context, item *sitecrawl.ContentItem, parent *sitecrawl.TransformResult, strategy sitecrawl.DuplicateStrategy) (*sitecrawl.TransformResult, error)
}

func (t *ContentTransformer) Transform(ctx context.Context, item *sitecrawl.ContentItem, parent *sitecrawl.TransformResult, strategy sitecrawl.DuplicateStrategy) (*sitecrawl.TransformResult, error) {
	return t.TransformFn(ctx, item, parent, strategy)
}

var _ sitecrawl.ImportProcess = (*ImportProcess)(nil)

// ImportProcess is a mock implementation of sitecrawl.ImportProcess.
type ImportProcess struct {
	ProcessFn func(ctx context.Context, item *sitecrawl.ContentItem, target, parent *sitecrawl.TransformResult, strategy sitecrawl.DuplicateStrategy) error
}

func (p *ImportProcess) Process(ctx context.Context, item *sitecrawl.ContentItem, target, parent *sitecrawl.TransformResult, strategy sitecrawl.DuplicateStrategy) error {
	return p.ProcessFn(ctx, item, target, parent, strategy)
}
