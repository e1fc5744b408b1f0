package crawl

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/fwojciec/sitecrawl"
)

// URLList is the durable map of crawled URLs for one source.
//
// Regular records are keyed by their raw URL, relative to the base URL.
// Every record's processed URL has its ancestors present as regular or
// inferred entries. State is loaded lazily from storage on first access and
// all mutations are serialized.
type URLList struct {
	// AutoCrawl, if set, is called to produce state when none has been
	// persisted yet. It must not be called while holding the list's lock.
	AutoCrawl func() error

	baseURL  string
	baseHost string
	storage  sitecrawl.URLListStorage

	mu        sync.Mutex
	processor sitecrawl.URLProcessor
	state     *sitecrawl.URLListState

	// processed counts regular records per processed URL.
	processed map[string]int
	// hashes maps a content hash to the first raw URL stored with it.
	hashes map[string]string
}

// NewURLList creates a URLList for the site at baseURL. A nil processor
// selects the identity processor.
func NewURLList(baseURL string, storage sitecrawl.URLListStorage, processor sitecrawl.URLProcessor) (*URLList, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "base URL required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid base URL %q", baseURL)
	}
	if processor == nil {
		processor = sitecrawl.IdentityProcessor{}
	}
	return &URLList{
		baseURL:   baseURL,
		baseHost:  normalizeHost(u.Hostname()),
		storage:   storage,
		processor: processor,
	}, nil
}

// BaseURL returns the base URL without a trailing slash.
func (l *URLList) BaseURL() string {
	return l.baseURL
}

// SetProcessor replaces the URL processor. Call ReprocessURLs afterwards to
// apply it to already crawled URLs.
func (l *URLList) SetProcessor(p sitecrawl.URLProcessor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p == nil {
		p = sitecrawl.IdentityProcessor{}
	}
	l.processor = p
}

// SpiderStatus derives the crawl status from persisted state and the
// resumption marker.
func (l *URLList) SpiderStatus() sitecrawl.SpiderStatus {
	if !l.storage.HasState() {
		return sitecrawl.SpiderNotStarted
	}
	if l.storage.HasCrawlerID() {
		return sitecrawl.SpiderPartial
	}
	return sitecrawl.SpiderComplete
}

// Reset replaces the in-memory state. A nil state starts empty.
func (l *URLList) Reset(state *sitecrawl.URLListState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setState(state)
}

// State returns a copy of the current state.
func (l *URLList) State() (*sitecrawl.URLListState, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone(), nil
}

// Save persists the current state.
func (l *URLList) Save() error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.storage.Save(l.state)
}

// AddURL stores a regular record for a relative raw URL and backfills its
// ancestors. Re-adding a raw URL overwrites its record.
func (l *URLList) AddURL(rawURL, mime, hash string) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addURL(rawURL, mime, hash)
}

// AddAbsoluteURL relativizes absURL and stores it. If a record with the same
// content hash already exists under another raw URL, the new URL is recorded
// as an alias of that record when their processed URLs differ, and is not
// stored as a regular record.
func (l *URLList) AddAbsoluteURL(absURL, mime, hash string) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rel, err := l.relativize(absURL)
	if err != nil {
		return err
	}

	if hash != "" {
		if existingRaw, ok := l.hashes[hash]; ok && existingRaw != rel {
			existing := l.state.Regular[existingRaw]
			processed, err := l.process(sitecrawl.URLData{URL: rel, MIME: mime})
			if err != nil {
				return err
			}
			if processed.URL != existing.ProcessedURL {
				l.addAlias(existingRaw, rel)
			}
			return nil
		}
	}

	return l.addURL(rel, mime, hash)
}

// AddInferredURL stores a hierarchy node that was never fetched and backfills
// its ancestors. Existing entries are kept.
func (l *URLList) AddInferredURL(data sitecrawl.URLData) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addInferred(data)
}

// AddURLAlias records that source redirects to destination. Both are
// relative URLs. Duplicates are not suppressed.
func (l *URLList) AddURLAlias(destination, source string) error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addAlias(destination, source)
	return nil
}

// ParentProcessedURL returns the parent of a processed URL, inserting it as
// an inferred record when it is not yet known. The parent of "/" is "" and
// the parent of a first-level URL is "/".
func (l *URLList) ParentProcessedURL(data sitecrawl.URLData) (sitecrawl.URLData, error) {
	if err := l.ensureLoaded(); err != nil {
		return sitecrawl.URLData{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.parent(data)
}

// Children returns the processed URLs exactly one segment below url, in
// sorted order. url may be a raw URL, which is resolved to its processed form.
// When url ends in "/" or "?" its children extend it by one segment with no
// further delimiter.
func (l *URLList) Children(u string) ([]string, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	processed := u
	if rec, ok := l.state.Regular[u]; ok {
		processed = rec.ProcessedURL
	}

	seen := make(map[string]bool)
	var children []string
	consider := func(candidate string) {
		if seen[candidate] || candidate == "/" {
			return
		}
		seen[candidate] = true
		if isChild(candidate, processed) {
			children = append(children, candidate)
		}
	}
	for p := range l.processed {
		consider(p)
	}
	for p := range l.state.Inferred {
		consider(p)
	}

	sort.Strings(children)
	return children, nil
}

// ReprocessURLs applies the current processor to every regular record and
// rebuilds the inferred hierarchy from scratch, then persists the result.
func (l *URLList) ReprocessURLs() error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Inferred = make(map[string]*sitecrawl.InferredURL)
	l.processed = make(map[string]int)

	keys := l.state.RegularKeys()
	for _, raw := range keys {
		rec := l.state.Regular[raw]
		processed, err := l.process(sitecrawl.URLData{URL: raw, MIME: rec.MIME})
		if err != nil {
			return err
		}
		rec.ProcessedURL = processed.URL
		if processed.MIME != "" {
			rec.MIME = processed.MIME
		}
		l.processed[rec.ProcessedURL]++
	}
	for _, raw := range keys {
		rec := l.state.Regular[raw]
		if _, err := l.parent(sitecrawl.URLData{URL: rec.ProcessedURL, MIME: rec.MIME}); err != nil {
			return err
		}
	}

	return l.storage.Save(l.state)
}

// ReconcileAliases prunes redirect sources that were inferred as hierarchy
// nodes. An inferred source is moved to its destination's key unless the
// destination is a regular URL.
func (l *URLList) ReconcileAliases() error {
	if err := l.ensureLoaded(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, dest := range l.state.AliasKeys() {
		for _, src := range l.state.Aliases[dest] {
			inferred, ok := l.state.Inferred[src]
			if !ok {
				continue
			}
			delete(l.state.Inferred, src)
			if _, ok := l.state.Regular[dest]; !ok {
				l.state.Inferred[dest] = &sitecrawl.InferredURL{ProcessedURL: dest, MIME: inferred.MIME}
			}
		}
	}
	return nil
}

// HasURL reports whether url is a known raw URL. Absolute URLs are compared
// against the base URL ignoring scheme, case and a leading "www."; an
// absolute URL on another host is EINVALID.
func (l *URLList) HasURL(u string) (bool, error) {
	if err := l.ensureLoaded(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !strings.HasPrefix(u, "/") {
		rel, err := l.relativize(u)
		if err != nil {
			return false, err
		}
		u = rel
	}
	if _, ok := l.state.Regular[u]; ok {
		return true, nil
	}
	_, ok := l.state.Inferred[u]
	return ok, nil
}

// HasProcessedURL reports whether url is a known processed URL.
func (l *URLList) HasProcessedURL(u string) (bool, error) {
	if err := l.ensureLoaded(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasProcessed(u), nil
}

// Record returns a copy of the regular record for a raw URL.
func (l *URLList) Record(rawURL string) (*sitecrawl.URLRecord, bool, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.state.Regular[rawURL]
	if !ok {
		return nil, false, nil
	}
	r := *rec
	return &r, true, nil
}

// RecordsForProcessedURL returns copies of the regular records with the given
// processed URL, ordered by raw URL.
func (l *URLList) RecordsForProcessedURL(processed string) ([]*sitecrawl.URLRecord, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.processed[processed] == 0 {
		return nil, nil
	}
	var recs []*sitecrawl.URLRecord
	for _, raw := range l.state.RegularKeys() {
		if rec := l.state.Regular[raw]; rec.ProcessedURL == processed {
			r := *rec
			recs = append(recs, &r)
		}
	}
	return recs, nil
}

// Inferred returns a copy of the inferred record for a processed URL.
func (l *URLList) Inferred(processed string) (*sitecrawl.InferredURL, bool, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.state.Inferred[processed]
	if !ok {
		return nil, false, nil
	}
	r := *rec
	return &r, true, nil
}

// ProcessedURLs returns raw to processed URLs for regular records, plus each
// inferred URL mapped to itself.
func (l *URLList) ProcessedURLs() (map[string]string, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	urls := make(map[string]string, len(l.state.Regular)+len(l.state.Inferred))
	for k := range l.state.Inferred {
		urls[k] = k
	}
	for raw, rec := range l.state.Regular {
		urls[raw] = rec.ProcessedURL
	}
	return urls, nil
}

// NumURLs returns the number of distinct processed URLs, regular or inferred.
func (l *URLList) NumURLs() (int, error) {
	if err := l.ensureLoaded(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.processed)
	for k := range l.state.Inferred {
		if l.processed[k] == 0 {
			n++
		}
	}
	return n, nil
}

// URLAliases returns the relative URLs redirecting to absURL, or nil if
// there are none.
func (l *URLList) URLAliases(absURL string) ([]string, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rel, err := l.relativize(absURL)
	if err != nil {
		return nil, err
	}
	aliases := l.state.Aliases[rel]
	if len(aliases) == 0 {
		return nil, nil
	}
	return append([]string(nil), aliases...), nil
}

// RelativizeURL returns the path and query of absURL relative to the base
// URL. Returns EINVALID if absURL belongs to another host.
func (l *URLList) RelativizeURL(absURL string) (string, error) {
	return l.relativize(absURL)
}

// ensureLoaded loads persisted state on first access. Without persisted
// state it runs AutoCrawl, or fails with ENOTCRAWLED when none is set.
func (l *URLList) ensureLoaded() error {
	l.mu.Lock()
	if l.state != nil {
		l.mu.Unlock()
		return nil
	}
	if l.storage.HasState() {
		defer l.mu.Unlock()
		return l.loadLocked()
	}
	autoCrawl := l.AutoCrawl
	l.mu.Unlock()

	if autoCrawl == nil {
		return sitecrawl.Errorf(sitecrawl.ENOTCRAWLED, "site has not been crawled yet and auto-crawl is disabled")
	}
	if err := autoCrawl(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != nil {
		return nil
	}
	if !l.storage.HasState() {
		return sitecrawl.Errorf(sitecrawl.ENOTCRAWLED, "crawl produced no URL list")
	}
	return l.loadLocked()
}

func (l *URLList) loadLocked() error {
	state, err := l.storage.Load()
	if err != nil {
		return err
	}
	l.setState(state)
	return nil
}

func (l *URLList) setState(state *sitecrawl.URLListState) {
	if state == nil {
		state = sitecrawl.NewURLListState()
	}
	state.Normalize()
	l.state = state
	l.processed = make(map[string]int, len(state.Regular))
	l.hashes = make(map[string]string)
	for _, raw := range state.RegularKeys() {
		rec := state.Regular[raw]
		l.processed[rec.ProcessedURL]++
		if rec.Hash != "" {
			if _, ok := l.hashes[rec.Hash]; !ok {
				l.hashes[rec.Hash] = raw
			}
		}
	}
}

func (l *URLList) process(data sitecrawl.URLData) (sitecrawl.URLData, error) {
	if data.URL == "" {
		return sitecrawl.URLData{}, sitecrawl.Errorf(sitecrawl.EINVALID, "can't process a blank URL")
	}
	out := l.processor.ProcessURL(data)
	if out.URL == "" {
		return sitecrawl.URLData{}, sitecrawl.Errorf(sitecrawl.EINVALID,
			"URL processor %q returned a blank URL for %q", l.processor.Name(), data.URL)
	}
	if out.MIME == "" {
		out.MIME = data.MIME
	}
	return out, nil
}

func (l *URLList) addURL(rawURL, mime, hash string) error {
	if !strings.HasPrefix(rawURL, "/") {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "raw URL %q must begin with /", rawURL)
	}
	processed, err := l.process(sitecrawl.URLData{URL: rawURL, MIME: mime})
	if err != nil {
		return err
	}

	if old, ok := l.state.Regular[rawURL]; ok {
		l.unindex(rawURL, old)
	}
	rec := &sitecrawl.URLRecord{
		RawURL:       rawURL,
		ProcessedURL: processed.URL,
		MIME:         processed.MIME,
		Hash:         hash,
	}
	l.state.Regular[rawURL] = rec
	l.processed[rec.ProcessedURL]++
	if hash != "" {
		if _, ok := l.hashes[hash]; !ok {
			l.hashes[hash] = rawURL
		}
	}

	// A fetched URL takes precedence over the node inferred for it.
	delete(l.state.Inferred, rec.ProcessedURL)

	_, err = l.parent(processed)
	return err
}

func (l *URLList) unindex(rawURL string, rec *sitecrawl.URLRecord) {
	if l.processed[rec.ProcessedURL] <= 1 {
		delete(l.processed, rec.ProcessedURL)
	} else {
		l.processed[rec.ProcessedURL]--
	}
	if rec.Hash != "" && l.hashes[rec.Hash] == rawURL {
		delete(l.hashes, rec.Hash)
	}
}

func (l *URLList) addInferred(data sitecrawl.URLData) error {
	if data.URL == "" {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "can't infer a blank URL")
	}
	if _, ok := l.state.Inferred[data.URL]; !ok && l.processed[data.URL] == 0 {
		l.state.Inferred[data.URL] = &sitecrawl.InferredURL{ProcessedURL: data.URL, MIME: data.MIME}
	}
	_, err := l.parent(data)
	return err
}

func (l *URLList) addAlias(destination, source string) {
	l.state.Aliases[destination] = append(l.state.Aliases[destination], source)
}

func (l *URLList) parent(data sitecrawl.URLData) (sitecrawl.URLData, error) {
	p := parentOf(data.URL)
	if p == "" || p == "/" {
		return sitecrawl.URLData{URL: p, MIME: data.MIME}, nil
	}
	if !l.hasProcessed(p) {
		if err := l.addInferred(sitecrawl.URLData{URL: p, MIME: data.MIME}); err != nil {
			return sitecrawl.URLData{}, err
		}
	}
	return sitecrawl.URLData{URL: p, MIME: data.MIME}, nil
}

func (l *URLList) hasProcessed(u string) bool {
	if l.processed[u] > 0 {
		return true
	}
	_, ok := l.state.Inferred[u]
	return ok
}

func (l *URLList) relativize(absURL string) (string, error) {
	u, err := url.Parse(absURL)
	if err != nil {
		return "", sitecrawl.Errorf(sitecrawl.EINVALID, "invalid URL %q", absURL)
	}
	if normalizeHost(u.Hostname()) != l.baseHost {
		return "", sitecrawl.Errorf(sitecrawl.EINVALID, "URL %q does not belong to %s", absURL, l.baseURL)
	}
	rel := u.EscapedPath()
	if rel == "" {
		rel = "/"
	}
	if u.RawQuery != "" {
		rel += "?" + u.RawQuery
	}
	return rel, nil
}

// isChild reports whether candidate sits one segment below parent.
func isChild(candidate, parent string) bool {
	if strings.HasSuffix(parent, "/") || strings.HasSuffix(parent, "?") {
		rest, ok := strings.CutPrefix(candidate, parent)
		return ok && rest != "" && !strings.ContainsAny(rest, "/?")
	}
	return parentOf(candidate) == parent
}

// parentOf truncates u at its last "/" or "?". The parent of "/" is "" and
// URLs with no delimiter past the first character have "/" as parent.
func parentOf(u string) string {
	if u == "/" {
		return ""
	}
	bp := max(strings.LastIndexByte(u, '/'), strings.LastIndexByte(u, '?'))
	if bp <= 0 {
		return "/"
	}
	return u[:bp]
}

func normalizeHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}
