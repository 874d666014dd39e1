package catalog

import (
	"context"
	"strings"
	"sync"

	"kitstock/pkg/platform/sentinel"
)

// InMemory is a seedable catalog for tests and standalone deployments.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemory builds a catalog from the given entries.
func NewInMemory(entries ...Entry) *InMemory {
	c := &InMemory{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		c.entries[normalize(e.Code)] = e
	}
	return c
}

// Add inserts or replaces an entry.
func (c *InMemory) Add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[normalize(e.Code)] = e
}

func (c *InMemory) Entry(_ context.Context, code string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[normalize(code)]; ok {
		return e, nil
	}
	return Entry{}, sentinel.ErrNotFound
}

func (c *InMemory) Kind(ctx context.Context, code string) (Kind, error) {
	e, err := c.Entry(ctx, code)
	if err != nil {
		return "", err
	}
	return e.Kind, nil
}

func (c *InMemory) ExpiryTracked(ctx context.Context, code string) (bool, error) {
	e, err := c.Entry(ctx, code)
	if err != nil {
		return false, err
	}
	return e.ExpiryTracked, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
