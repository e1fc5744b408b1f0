package sitecrawl

import (
	"context"
	"sort"
	"sync"
)

// DuplicateStrategy tells transformers what to do when the target object
// already exists.
type DuplicateStrategy string

const (
	DuplicateOverwrite DuplicateStrategy = "Overwrite"
	DuplicateDuplicate DuplicateStrategy = "Duplicate"
	DuplicateSkip      DuplicateStrategy = "Skip"
)

// ParseDuplicateStrategy returns EINVALID for unknown strategies.
func ParseDuplicateStrategy(s string) (DuplicateStrategy, error) {
	switch DuplicateStrategy(s) {
	case DuplicateOverwrite, DuplicateDuplicate, DuplicateSkip:
		return DuplicateStrategy(s), nil
	}
	return "", Errorf(EINVALID, "unknown duplicate strategy %q", s)
}

// ContentItem is a node of the crawled hierarchy handed to the import phase.
type ContentItem struct {
	ProcessedURL string
	RawURL       string // empty for inferred nodes
	AbsoluteURL  string
	MIME         string
	Inferred     bool
	Aliases      []string
	Schema       *Schema

	// Content holds the fetched markup of HTML items.
	Content string
}

// TransformResult is the object a transformer produced for an item. It is
// passed as the parent of the item's children.
type TransformResult struct {
	ID   string
	Item *ContentItem
}

// ContentTransformer turns a content item into an object of the content store.
// Returning a nil result without error skips the item and its subtree.
type ContentTransformer interface {
	Transform(ctx context.Context, item *ContentItem, parent *TransformResult, strategy DuplicateStrategy) (*TransformResult, error)
}

// ImportProcess runs an additional import step on a transformed item.
type ImportProcess interface {
	Process(ctx context.Context, item *ContentItem, target, parent *TransformResult, strategy DuplicateStrategy) error
}

// ImportProcessFactory creates an ImportProcess.
type ImportProcessFactory func() ImportProcess

// ImportProcessRegistry maps import process names to factories.
type ImportProcessRegistry struct {
	mu        sync.RWMutex
	factories map[string]ImportProcessFactory
}

// NewImportProcessRegistry creates an empty registry.
func NewImportProcessRegistry() *ImportProcessRegistry {
	return &ImportProcessRegistry{factories: make(map[string]ImportProcessFactory)}
}

// Register adds or replaces the factory for name.
func (r *ImportProcessRegistry) Register(name string, factory ImportProcessFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new process for name. Returns EINVALID for unregistered names.
func (r *ImportProcessRegistry) Get(name string) (ImportProcess, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, Errorf(EINVALID, "unknown import process %q", name)
	}
	return factory(), nil
}

// List returns the registered names in sorted order.
func (r *ImportProcessRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
