package mock

import "github.com/fwojciec/sitecrawl"

var _ sitecrawl.URLListStorage = (*URLListStorage)(nil)

// URLListStorage is a mock implementation of sitecrawl.URLListStorage.
type URLListStorage struct {
	LoadFn           func() (*sitecrawl.URLListState, error)
	SaveFn           func(state *sitecrawl.URLListState) error
	HasStateFn       func() bool
	CrawlerIDFn      func() (string, error)
	SetCrawlerIDFn   func(id string) error
	ClearCrawlerIDFn func() error
	HasCrawlerIDFn   func() bool
}

func (s *URLListStorage) Load() (*sitecrawl.URLListState, error) {
	return s.LoadFn()
}

func (s *URLListStorage) Save(state *sitecrawl.URLListState) error {
	return s.SaveFn(state)
}

func (s *URLListStorage) HasState() bool {
	return s.HasStateFn()
}

func (s *URLListStorage) CrawlerID() (string, error) {
	return s.CrawlerIDFn()
}

func (s *URLListStorage) SetCrawlerID(id string) error {
	return s.SetCrawlerIDFn(id)
}

func (s *URLListStorage) ClearCrawlerID() error {
	return s.ClearCrawlerIDFn()
}

func (s *URLListStorage) HasCrawlerID() bool {
	return s.HasCrawlerIDFn()
}
