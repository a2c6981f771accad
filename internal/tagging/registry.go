package tagging

import (
	"context"
	"sync"
)

// Tag contexts the listing entity validates against.
const (
	ContextCategory    = "category"
	ContextSubcategory = "subcategories"
)

// Registry keeps the set of default tags allowed per context. Listings may
// only be filed under tags registered here.
type Registry interface {
	RegisteredTags(ctx context.Context, tagContext string) ([]string, error)
	RegisterTag(ctx context.Context, name, tagContext string) error
}

// MemoryRegistry is an in-memory Registry, used in tests and as a seeding
// helper before a persistent registry is wired in.
type MemoryRegistry struct {
	mu   sync.RWMutex
	tags map[string][]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{tags: make(map[string][]string)}
}

func (r *MemoryRegistry) RegisteredTags(_ context.Context, tagContext string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.tags[tagContext]))
	copy(names, r.tags[tagContext])
	return names, nil
}

func (r *MemoryRegistry) RegisterTag(_ context.Context, name, tagContext string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tags[tagContext] {
		if existing == name {
			return nil
		}
	}
	r.tags[tagContext] = append(r.tags[tagContext], name)
	return nil
}
