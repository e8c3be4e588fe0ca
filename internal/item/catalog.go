package item

import (
	"context"
	"fmt"
	"sort"
)

// MemoryCatalog is an in-memory Catalog. It is immutable once built and
// safe for concurrent use.
type MemoryCatalog struct {
	byID   map[string]Item
	sorted []Item
}

// NewMemoryCatalog builds a catalog from items. Duplicate ids and invalid
// levels are rejected.
func NewMemoryCatalog(items []Item) (*MemoryCatalog, error) {
	c := &MemoryCatalog{byID: make(map[string]Item, len(items))}
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("item: empty id")
		}
		if !it.Level.IsValid() {
			return nil, fmt.Errorf("item %q: invalid level %d", it.ID, int(it.Level))
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("item %q: duplicate id", it.ID)
		}
		c.byID[it.ID] = it
	}
	c.rebuild()
	return c, nil
}

func (c *MemoryCatalog) rebuild() {
	c.sorted = make([]Item, 0, len(c.byID))
	for _, it := range c.byID {
		c.sorted = append(c.sorted, it)
	}
	sort.Slice(c.sorted, func(i, j int) bool {
		if c.sorted[i].Level != c.sorted[j].Level {
			return c.sorted[i].Level < c.sorted[j].Level
		}
		return c.sorted[i].ID < c.sorted[j].ID
	})
}

// Resolve implements Resolver.
func (c *MemoryCatalog) Resolve(_ context.Context, id string) (Item, error) {
	it, ok := c.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return it, nil
}

// Items implements Catalog. The returned slice is a copy.
func (c *MemoryCatalog) Items(_ context.Context) ([]Item, error) {
	out := make([]Item, len(c.sorted))
	copy(out, c.sorted)
	return out, nil
}

// Len returns the number of items.
func (c *MemoryCatalog) Len() int {
	return len(c.byID)
}
