package registry

import (
	"sort"
	"sync"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

// MenuEntry is one option in the topic-selection menu.
type MenuEntry struct {
	Key      string
	Category domain.Category
}

// CategoryRegistry owns the topic-key to category mapping that backs the
// selection menu.
type CategoryRegistry struct {
	mu         sync.RWMutex
	categories map[string]domain.Category
}

// NewCategoryRegistry seeds the registry from a loaded snapshot. Records in
// the seed are expected to be normalized already (the store does this at
// load time).
func NewCategoryRegistry(seed map[string]domain.Category) *CategoryRegistry {
	categories := make(map[string]domain.Category, len(seed))
	for key, cat := range seed {
		categories[key] = cat
	}
	return &CategoryRegistry{categories: categories}
}

// Upsert inserts or replaces a category. Used by the bulk setup path, where
// replacing an existing key is intended.
func (r *CategoryRegistry) Upsert(key string, cat domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[key] = cat.Normalize(key)
}

// Add inserts a category, rejecting duplicates. Used by the incremental
// admin path.
func (r *CategoryRegistry) Add(key string, cat domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[key]; ok {
		return util.NewConflict("category already exists", map[string]any{"name": key})
	}
	r.categories[key] = cat.Normalize(key)
	return nil
}

// Remove deletes a category and returns the removed record for the
// confirmation message.
func (r *CategoryRegistry) Remove(key string) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cat, ok := r.categories[key]
	if !ok {
		return domain.Category{}, util.NewNotFound("category", map[string]any{"name": key})
	}
	delete(r.categories, key)
	return cat, nil
}

// Resolve looks up the category for a topic key.
func (r *CategoryRegistry) Resolve(key string) (domain.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cat, ok := r.categories[key]
	return cat, ok
}

// ListForMenu returns the categories in key order. An empty slice is a
// valid, reportable state.
func (r *CategoryRegistry) ListForMenu() []MenuEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.categories))
	for key := range r.categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	entries := make([]MenuEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, MenuEntry{Key: key, Category: r.categories[key]})
	}
	return entries
}

// Snapshot copies the registry for persistence or reporting.
func (r *CategoryRegistry) Snapshot() map[string]domain.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Category, len(r.categories))
	for key, cat := range r.categories {
		out[key] = cat
	}
	return out
}
