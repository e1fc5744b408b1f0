package sitecrawl

import "sort"

// UnknownMIME is the MIME type recorded when a document's type could not be
// determined. Schemas treat it as matching any declared MIME type.
const UnknownMIME = "unknown"

// URLData is a URL paired with its MIME type. It is the unit passed through
// URL processors and used for inferred hierarchy nodes.
type URLData struct {
	URL  string `json:"url"`
	MIME string `json:"mime"`
}

// URLRecord is a URL that was fetched during a crawl.
// RawURL is relative to the site base and always begins with "/".
type URLRecord struct {
	RawURL       string `json:"rawUrl"`
	ProcessedURL string `json:"processedUrl"`
	MIME         string `json:"mime"`
	Hash         string `json:"hash,omitempty"`
}

// InferredURL is a hierarchy node implied by a child's path that was never
// fetched directly.
type InferredURL struct {
	ProcessedURL string `json:"processedUrl"`
	MIME         string `json:"mime"`
}

// URLListState is the aggregate persisted after every crawl mutation.
//
// Regular is keyed by raw URL, Inferred by processed URL, and Aliases maps a
// redirect destination to the relative URLs that redirect to it.
type URLListState struct {
	Regular  map[string]*URLRecord   `json:"regular"`
	Inferred map[string]*InferredURL `json:"inferred"`
	Aliases  map[string][]string     `json:"aliases"`
}

// NewURLListState returns an empty state with all maps allocated.
func NewURLListState() *URLListState {
	return &URLListState{
		Regular:  make(map[string]*URLRecord),
		Inferred: make(map[string]*InferredURL),
		Aliases:  make(map[string][]string),
	}
}

// Normalize allocates any nil maps. Decoded state may omit empty maps.
func (s *URLListState) Normalize() {
	if s.Regular == nil {
		s.Regular = make(map[string]*URLRecord)
	}
	if s.Inferred == nil {
		s.Inferred = make(map[string]*InferredURL)
	}
	if s.Aliases == nil {
		s.Aliases = make(map[string][]string)
	}
}

// Clone returns a deep copy of the state.
func (s *URLListState) Clone() *URLListState {
	c := NewURLListState()
	for k, v := range s.Regular {
		r := *v
		c.Regular[k] = &r
	}
	for k, v := range s.Inferred {
		i := *v
		c.Inferred[k] = &i
	}
	for k, v := range s.Aliases {
		c.Aliases[k] = append([]string(nil), v...)
	}
	return c
}

// RegularKeys returns the raw URLs of all regular records in sorted order.
func (s *URLListState) RegularKeys() []string {
	return sortedKeys(s.Regular)
}

// InferredKeys returns the processed URLs of all inferred records in sorted order.
func (s *URLListState) InferredKeys() []string {
	return sortedKeys(s.Inferred)
}

// AliasKeys returns all alias destinations in sorted order.
func (s *URLListState) AliasKeys() []string {
	return sortedKeys(s.Aliases)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SpiderStatus describes the crawl state of a source.
type SpiderStatus string

const (
	SpiderNotStarted SpiderStatus = "Not started"
	SpiderPartial    SpiderStatus = "Partial"
	SpiderComplete   SpiderStatus = "Complete"
)

// URLListStorage persists the URL list state and the crawl resumption marker
// for a single source.
type URLListStorage interface {
	// Load reads the persisted state.
	// Returns ENOTFOUND if nothing has been persisted yet.
	Load() (*URLListState, error)

	// Save overwrites the persisted state.
	Save(state *URLListState) error

	// HasState reports whether a state blob has been persisted.
	HasState() bool

	// CrawlerID returns the resumption token of the in-progress crawl.
	// Returns ENOTFOUND if no crawl is in progress.
	CrawlerID() (string, error)

	// SetCrawlerID writes the resumption marker.
	SetCrawlerID(id string) error

	// ClearCrawlerID removes the resumption marker, marking the crawl complete.
	ClearCrawlerID() error

	// HasCrawlerID reports whether a resumption marker exists.
	HasCrawlerID() bool
}
