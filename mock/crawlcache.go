package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.CrawlCache = (*CrawlCache)(nil)

// CrawlCache is a mock implementation of sitecrawl.CrawlCache.
type CrawlCache struct {
	MarkVisitedFn func(ctx context.Context, id uint64) error
	IsVisitedFn   func(ctx context.Context, id uint64) (bool, error)
	VisitedIDsFn  func(ctx context.Context) ([]uint64, error)
	CookiesFn     func(ctx context.Context, host string) (string, error)
	SetCookiesFn  func(ctx context.Context, host, cookies string) error
	PushRequestFn func(ctx context.Context, request []byte) error
	PopRequestFn  func(ctx context.Context) ([]byte, error)
	QueueSizeFn   func(ctx context.Context) (int, error)
	ResetFn       func(ctx context.Context) error
}

func (c *CrawlCache) MarkVisited(ctx context.Context, id uint64) error {
	return c.MarkVisitedFn(ctx, id)
}

func (c *CrawlCache) IsVisited(ctx context.Context, id uint64) (bool, error) {
	return c.IsVisitedFn(ctx, id)
}

func (c *CrawlCache) VisitedIDs(ctx context.Context) ([]uint64, error) {
	return c.VisitedIDsFn(ctx)
}

func (c *CrawlCache) Cookies(ctx context.Context, host string) (string, error) {
	return c.CookiesFn(ctx, host)
}

func (c *CrawlCache) SetCookies(ctx context.Context, host, cookies string) error {
	return c.SetCookiesFn(ctx, host, cookies)
}

func (c *CrawlCache) PushRequest(ctx context.Context, request []byte) error {
	return c.PushRequestFn(ctx, request)
}

func (c *CrawlCache) PopRequest(ctx context.Context) ([]byte, error) {
	return c.PopRequestFn(ctx)
}

func (c *CrawlCache) QueueSize(ctx context.Context) (int, error) {
	return c.QueueSizeFn(ctx)
}

func (c *CrawlCache) Reset(ctx context.Context) error {
	return c.ResetFn(ctx)
}
