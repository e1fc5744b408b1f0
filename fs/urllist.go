// Package fs persists crawl state as files in a per-source cache directory.
package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/sitecrawl"
)

// File names inside the cache directory.
const (
	URLsFile      = "urls"
	CrawlerIDFile = "crawlerid"
)

// Ensure URLListStore implements sitecrawl.URLListStorage at compile time.
var _ sitecrawl.URLListStorage = (*URLListStore)(nil)

// URLListStore implements sitecrawl.URLListStorage with files in a cache
// directory. The state is written to a temporary file and renamed into
// place, so a crash never leaves a truncated blob behind.
type URLListStore struct {
	dir string
}

// NewURLListStore creates a store rooted at dir. The directory is created on
// first write.
func NewURLListStore(dir string) *URLListStore {
	return &URLListStore{dir: dir}
}

// Dir returns the cache directory.
func (s *URLListStore) Dir() string {
	return s.dir
}

func (s *URLListStore) urlsPath() string {
	return filepath.Join(s.dir, URLsFile)
}

func (s *URLListStore) crawlerIDPath() string {
	return filepath.Join(s.dir, CrawlerIDFile)
}

func (s *URLListStore) Load() (*sitecrawl.URLListState, error) {
	data, err := os.ReadFile(s.urlsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "no URL list in %s", s.dir)
	}
	if err != nil {
		return nil, err
	}

	var state sitecrawl.URLListState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode URL list: %w", err)
	}
	state.Normalize()
	return &state, nil
}

// Save writes the state. Map keys are encoded in sorted order.
func (s *URLListStore) Save(state *sitecrawl.URLListState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode URL list: %w", err)
	}
	return s.writeAtomic(s.urlsPath(), data)
}

func (s *URLListStore) HasState() bool {
	return exists(s.urlsPath())
}

func (s *URLListStore) CrawlerID() (string, error) {
	data, err := os.ReadFile(s.crawlerIDPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", sitecrawl.Errorf(sitecrawl.ENOTFOUND, "no crawl in progress")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *URLListStore) SetCrawlerID(id string) error {
	return s.writeAtomic(s.crawlerIDPath(), []byte(id))
}

func (s *URLListStore) ClearCrawlerID() error {
	err := os.Remove(s.crawlerIDPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *URLListStore) HasCrawlerID() bool {
	return exists(s.crawlerIDPath())
}

// Clear removes the state and the marker.
func (s *URLListStore) Clear() error {
	if err := os.Remove(s.urlsPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return s.ClearCrawlerID()
}

func (s *URLListStore) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
