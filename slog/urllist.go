package slog

import (
	"log/slog"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.URLListStorage = (*LoggingURLListStorage)(nil)

// LoggingURLListStorage wraps a URLListStorage. Loads and saves are logged at
// debug level, marker changes at info.
type LoggingURLListStorage struct {
	next   sitecrawl.URLListStorage
	logger *slog.Logger
}

// NewLoggingURLListStorage creates a new LoggingURLListStorage.
func NewLoggingURLListStorage(next sitecrawl.URLListStorage, logger *slog.Logger) *LoggingURLListStorage {
	return &LoggingURLListStorage{next: next, logger: logger}
}

func (s *LoggingURLListStorage) Load() (state *sitecrawl.URLListState, err error) {
	defer func() {
		if err != nil && sitecrawl.ErrorCode(err) != sitecrawl.ENOTFOUND {
			s.logger.Warn("URL list load failed", "err", err)
			return
		}
		if state != nil {
			s.logger.Debug("URL list loaded",
				"regular", len(state.Regular),
				"inferred", len(state.Inferred),
				"aliases", len(state.Aliases),
			)
		}
	}()
	return s.next.Load()
}

func (s *LoggingURLListStorage) Save(state *sitecrawl.URLListState) (err error) {
	defer func() {
		if err != nil {
			s.logger.Error("URL list save failed", "err", err)
			return
		}
		if state == nil {
			return
		}
		s.logger.Debug("URL list saved",
			"regular", len(state.Regular),
			"inferred", len(state.Inferred),
			"aliases", len(state.Aliases),
		)
	}()
	return s.next.Save(state)
}

func (s *LoggingURLListStorage) HasState() bool {
	return s.next.HasState()
}

func (s *LoggingURLListStorage) CrawlerID() (string, error) {
	return s.next.CrawlerID()
}

func (s *LoggingURLListStorage) SetCrawlerID(id string) (err error) {
	defer func() {
		s.logger.Info("resumption marker written", "crawler_id", id, "err", err)
	}()
	return s.next.SetCrawlerID(id)
}

func (s *LoggingURLListStorage) ClearCrawlerID() (err error) {
	defer func() {
		s.logger.Info("resumption marker removed", "err", err)
	}()
	return s.next.ClearCrawlerID()
}

func (s *LoggingURLListStorage) HasCrawlerID() bool {
	return s.next.HasCrawlerID()
}
