package colly

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/bloom"
	"github.com/gocolly/colly/v2/queue"
	"github.com/gocolly/colly/v2/storage"
)

// Bloom filter sizing for the visited prefilter.
const (
	visitedExpectedIDs       = 100000
	visitedFalsePositiveRate = 0.01
)

var _ storage.Storage = (*visitedStorage)(nil)

// visitedStorage adapts a CrawlCache to colly's visited and cookie storage.
// A Bloom filter answers most IsVisited calls without touching the cache:
// an ID the filter has never seen was certainly never visited.
type visitedStorage struct {
	ctx    context.Context
	cache  sitecrawl.CrawlCache
	seen   *bloom.Filter
	logger *slog.Logger
}

func newVisitedStorage(ctx context.Context, cache sitecrawl.CrawlCache, logger *slog.Logger) *visitedStorage {
	return &visitedStorage{
		ctx:    context.WithoutCancel(ctx),
		cache:  cache,
		seen:   bloom.NewFilter(visitedExpectedIDs, visitedFalsePositiveRate),
		logger: logger,
	}
}

// Init loads the IDs visited by an earlier run into the filter.
func (s *visitedStorage) Init() error {
	ids, err := s.cache.VisitedIDs(s.ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.seen.Add(id)
	}
	return nil
}

func (s *visitedStorage) Visited(requestID uint64) error {
	s.seen.Add(requestID)
	return s.cache.MarkVisited(s.ctx, requestID)
}

func (s *visitedStorage) IsVisited(requestID uint64) (bool, error) {
	if !s.seen.Test(requestID) {
		return false, nil
	}
	return s.cache.IsVisited(s.ctx, requestID)
}

func (s *visitedStorage) Cookies(u *url.URL) string {
	cookies, err := s.cache.Cookies(s.ctx, u.Host)
	if err != nil {
		s.logger.Warn("failed to load cookies", "host", u.Host, "err", err)
		return ""
	}
	return cookies
}

func (s *visitedStorage) SetCookies(u *url.URL, cookies string) {
	if err := s.cache.SetCookies(s.ctx, u.Host, cookies); err != nil {
		s.logger.Warn("failed to store cookies", "host", u.Host, "err", err)
	}
}

var _ queue.Storage = (*queueStorage)(nil)

// queueStorage adapts a CrawlCache to colly's request queue. Once ctx is
// done it reports an empty queue so the queue stops dispatching; requests
// not yet popped stay persisted for the next run.
type queueStorage struct {
	ctx   context.Context
	cache sitecrawl.CrawlCache
}

func (s *queueStorage) Init() error { return nil }

func (s *queueStorage) AddRequest(r []byte) error {
	return s.cache.PushRequest(context.WithoutCancel(s.ctx), r)
}

func (s *queueStorage) GetRequest() ([]byte, error) {
	r, err := s.cache.PopRequest(context.WithoutCancel(s.ctx))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errEmptyQueue
	}
	return r, nil
}

func (s *queueStorage) QueueSize() (int, error) {
	if s.ctx.Err() != nil {
		return 0, nil
	}
	return s.cache.QueueSize(context.WithoutCancel(s.ctx))
}
