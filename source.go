package sitecrawl

import (
	"context"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Source represents a website whose content is migrated.
type Source struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`

	// URLProcessor is the registry name of the processor applied to raw URLs.
	// Empty selects the identity processor.
	URLProcessor string `json:"urlProcessor"`

	// ExtraCrawlURLs are seeded in addition to the base URL, for pages that
	// no other page links to.
	ExtraCrawlURLs []string `json:"extraCrawlUrls"`

	// ExcludePatterns are regular expressions; matching URLs are never fetched.
	ExcludePatterns []string `json:"excludePatterns"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.Name == "" {
		return Errorf(EINVALID, "source name required")
	}
	if s.BaseURL == "" {
		return Errorf(EINVALID, "source base URL required")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Errorf(EINVALID, "source base URL %q must be an absolute http(s) URL", s.BaseURL)
	}
	if _, err := CompilePatterns(s.ExcludePatterns); err != nil {
		return err
	}
	return nil
}

// NormalizedBaseURL returns the base URL without its trailing slash.
func (s *Source) NormalizedBaseURL() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// CacheDir returns the per-source directory for crawl state under root.
func (s *Source) CacheDir(root string) string {
	return filepath.Join(root, "static-site-"+s.ID)
}

// CompilePatterns compiles exclude patterns. Blank patterns are skipped.
// Returns EINVALID naming the first pattern that does not compile.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	var res []*regexp.Regexp
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// SourceService represents a service for managing sources.
type SourceService interface {
	// CreateSource creates a new source.
	CreateSource(ctx context.Context, source *Source) error

	// FindSourceByID retrieves a source by ID.
	// Returns ENOTFOUND if source does not exist.
	FindSourceByID(ctx context.Context, id string) (*Source, error)

	// FindSources retrieves sources matching the filter.
	FindSources(ctx context.Context, filter SourceFilter) ([]*Source, error)

	// UpdateSource updates an existing source.
	// Returns ENOTFOUND if source does not exist.
	UpdateSource(ctx context.Context, id string, upd SourceUpdate) (*Source, error)

	// DeleteSource permanently removes a source and its schemas.
	// Returns ENOTFOUND if source does not exist.
	DeleteSource(ctx context.Context, id string) error
}

// SourceFilter represents a filter for FindSources.
type SourceFilter struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SourceUpdate represents fields that can be updated on a source.
type SourceUpdate struct {
	Name            *string   `json:"name"`
	BaseURL         *string   `json:"baseUrl"`
	URLProcessor    *string   `json:"urlProcessor"`
	ExtraCrawlURLs  *[]string `json:"extraCrawlUrls"`
	ExcludePatterns *[]string `json:"excludePatterns"`
}
