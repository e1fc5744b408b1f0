package sitecrawl

import (
	"context"
	"regexp"
)

// SitemapService discovers URLs listed in a site's sitemaps. The crawler uses
// them as additional seeds so that pages no other page links to are found.
type SitemapService interface {
	// DiscoverURLs finds all URLs from a site's sitemap.
	// robots.txt Sitemap directives are checked first, then /sitemap.xml.
	// Sitemap indexes are resolved recursively.
	//
	// URLs not passing filter are dropped. A nil filter keeps everything.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// NewExcludeFilter returns a filter that drops URLs matching any of patterns.
// Returns nil when there are no patterns.
func NewExcludeFilter(patterns []*regexp.Regexp) *URLFilter {
	if len(patterns) == 0 {
		return nil
	}
	return &URLFilter{Exclude: patterns}
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 && !matchAny(f.Include, url) {
		return false
	}

	return !matchAny(f.Exclude, url)
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
