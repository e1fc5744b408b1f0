package sitecrawl

import (
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// URLProcessor maps a raw URL to the processed URL used for the content
// hierarchy. Implementations must be pure and must never return a blank URL.
type URLProcessor interface {
	ProcessURL(data URLData) URLData

	// Name is the registry key for the processor.
	Name() string

	// Description is a human readable summary shown by the CLI.
	Description() string
}

// ProcessorFactory creates a URLProcessor.
type ProcessorFactory func() URLProcessor

// ProcessorRegistry maps processor names to factories.
type ProcessorRegistry struct {
	mu        sync.RWMutex
	factories map[string]ProcessorFactory
}

// NewProcessorRegistry creates an empty registry.
func NewProcessorRegistry() *ProcessorRegistry {
	return &ProcessorRegistry{factories: make(map[string]ProcessorFactory)}
}

// DefaultProcessors returns a registry with all built-in processors registered.
func DefaultProcessors() *ProcessorRegistry {
	r := NewProcessorRegistry()
	r.Register(IdentityProcessorName, func() URLProcessor { return IdentityProcessor{} })
	r.Register(MOSSProcessorName, func() URLProcessor { return MOSSProcessor{} })
	r.Register(DropExtensionsProcessorName, func() URLProcessor { return DropExtensionsProcessor{} })
	return r
}

// Register adds or replaces the factory for name.
func (r *ProcessorRegistry) Register(name string, factory ProcessorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new processor for name. An empty name selects the identity
// processor. Returns EINVALID for unregistered names.
func (r *ProcessorRegistry) Get(name string) (URLProcessor, error) {
	if name == "" {
		return IdentityProcessor{}, nil
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, Errorf(EINVALID, "unknown URL processor %q", name)
	}
	return factory(), nil
}

// List returns the registered processor names in sorted order.
func (r *ProcessorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Built-in processor names.
const (
	IdentityProcessorName       = "identity"
	MOSSProcessorName           = "moss"
	DropExtensionsProcessorName = "drop-extensions"
)

// IdentityProcessor returns URLs unchanged.
type IdentityProcessor struct{}

func (IdentityProcessor) ProcessURL(data URLData) URLData { return data }
func (IdentityProcessor) Name() string                    { return IdentityProcessorName }
func (IdentityProcessor) Description() string             { return "Leave URLs unchanged" }

var mossPagesSegment = regexp.MustCompile(`(?i)/Pages/`)

// MOSSProcessor removes the "/Pages/" segment and ".aspx" extension that
// Microsoft Office SharePoint Server adds to every page URL.
type MOSSProcessor struct{}

func (MOSSProcessor) Name() string { return MOSSProcessorName }
func (MOSSProcessor) Description() string {
	return "Remove /Pages/ segments and .aspx extensions (SharePoint sites)"
}

func (MOSSProcessor) ProcessURL(data URLData) URLData {
	u := mossPagesSegment.ReplaceAllString(data.URL, "/")
	u = replaceExtension(u, ".aspx")
	if u == "" {
		u = "/"
	}
	return URLData{URL: u, MIME: data.MIME}
}

// DropExtensionsProcessor removes the file extension from HTML pages.
// Other documents keep their extension so files remain distinguishable.
type DropExtensionsProcessor struct{}

func (DropExtensionsProcessor) Name() string        { return DropExtensionsProcessorName }
func (DropExtensionsProcessor) Description() string { return "Drop file extensions from HTML pages" }

func (DropExtensionsProcessor) ProcessURL(data URLData) URLData {
	if data.MIME != "text/html" {
		return data
	}
	pathPart, query := splitQuery(data.URL)
	ext := path.Ext(pathPart)
	if ext == "" || strings.HasSuffix(pathPart, "/") {
		return data
	}
	stripped := strings.TrimSuffix(pathPart, ext)
	if stripped == "" || strings.HasSuffix(stripped, "/") {
		return data
	}
	return URLData{URL: stripped + query, MIME: data.MIME}
}

// replaceExtension strips ext (case-insensitive) from the path part of u.
func replaceExtension(u, ext string) string {
	pathPart, query := splitQuery(u)
	if strings.HasSuffix(strings.ToLower(pathPart), ext) {
		pathPart = pathPart[:len(pathPart)-len(ext)]
	}
	return pathPart + query
}

// splitQuery splits u into its path and "?query" parts.
func splitQuery(u string) (string, string) {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i], u[i:]
	}
	return u, ""
}
