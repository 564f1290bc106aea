package workshop

import (
	"context"
	"sync"

	"github.com/matzehuels/pzmod/pkg/observability"
)

// Cache holds every ModEntry fetched during a session, keyed by workshop ID.
//
// Entries never expire and are never evicted. Failed fetches leave the cache
// untouched. All methods are safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	items    map[string]ModEntry
	inflight map[string]chan struct{}
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		items:    make(map[string]ModEntry),
		inflight: make(map[string]chan struct{}),
	}
}

// Get returns the cached entry for id.
func (c *Cache) Get(id string) (ModEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[id]
	return e, ok
}

// Put stores e under its workshop ID, replacing any previous entry.
func (c *Cache) Put(e ModEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[e.WorkshopID] = e
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// claim is the outcome of reserving a chunk's IDs.
type claim struct {
	fetch []string        // IDs this caller must fetch, deduplicated, input order
	wait  []chan struct{} // fetches by other callers to await
	owned map[string]bool // set view of fetch
}

// claim partitions ids into cached, in flight elsewhere, and to be fetched
// by the caller. IDs placed in fetch are marked in flight until release is
// called, which makes check-and-fetch atomic per ID.
func (c *Cache) claim(ctx context.Context, ids []string) claim {
	hooks := observability.Cache()
	cl := claim{owned: make(map[string]bool)}
	waiting := make(map[string]bool)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if _, ok := c.items[id]; ok {
			hooks.OnCacheHit(ctx, id)
			continue
		}
		if cl.owned[id] || waiting[id] {
			continue
		}
		if ch, ok := c.inflight[id]; ok {
			hooks.OnCacheWait(ctx, id)
			waiting[id] = true
			cl.wait = append(cl.wait, ch)
			continue
		}
		hooks.OnCacheMiss(ctx, id)
		c.inflight[id] = make(chan struct{})
		cl.owned[id] = true
		cl.fetch = append(cl.fetch, id)
	}
	return cl
}

// release stores entries and wakes every caller waiting on ids.
// It must be called exactly once for each non-empty claim.fetch.
func (c *Cache) release(ids []string, entries []ModEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		c.items[e.WorkshopID] = e
	}
	for _, id := range ids {
		if ch, ok := c.inflight[id]; ok {
			close(ch)
			delete(c.inflight, id)
		}
	}
}
