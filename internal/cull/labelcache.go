package cull

import (
	"context"
	"sync"

	"github.com/mkern/mailcull/internal/gmail"
)

// LabelCache memoizes marker label name → provider ID lookups. Chunks of
// one rule×label resolve the marker concurrently, so the map is mutex
// guarded; EnsureLabel is idempotent on the provider side, so a duplicate
// create between Lookup and store is harmless.
type LabelCache struct {
	mu  sync.Mutex
	ids map[string]gmail.LabelID
}

// NewLabelCache returns an empty cache. Each processor run should receive
// its own instance unless callers deliberately share one.
func NewLabelCache() *LabelCache {
	return &LabelCache{ids: map[string]gmail.LabelID{}}
}

// Lookup reports whether name has already been resolved this run.
func (c *LabelCache) Lookup(name string) (gmail.LabelID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[name]
	return id, ok
}

// Ensure returns the label ID for name, creating the label on first use.
func (c *LabelCache) Ensure(ctx context.Context, client gmail.Client, name string) (gmail.LabelID, error) {
	c.mu.Lock()
	id, ok := c.ids[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err := client.EnsureLabel(ctx, name)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.ids[name] = id
	c.mu.Unlock()
	return id, nil
}
