package layout

import (
	"sync"

	"github.com/go-flint/flint/pkg/rendering"
)

// cacheKey identifies a cached layout result. Child count is part of the key
// so that a structural change (children added or removed during
// reconciliation) misses even when the constraints are unchanged.
type cacheKey struct {
	node        RenderObject
	constraints Constraints
	childCount  int
}

type cacheEntry struct {
	size        rendering.Size
	needsLayout bool
}

// CacheStats reports layout cache effectiveness.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// LayoutCache short-circuits relayouts whose inputs are unchanged.
//
// An entry is keyed by (render object, constraints, child count) and holds
// the computed size plus a needs-layout mark. Lookup returns the size only
// for clean entries; MarkNodeDirty taints a node's entries without removing
// them so the next successful layout refreshes them in place.
type LayoutCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	byNode  map[RenderObject][]cacheKey
	stats   CacheStats
}

// NewLayoutCache creates an empty layout cache.
func NewLayoutCache() *LayoutCache {
	return &LayoutCache{
		entries: make(map[cacheKey]cacheEntry),
		byNode:  make(map[RenderObject][]cacheKey),
	}
}

// Lookup returns the cached size for the given inputs.
// Misses when no entry exists, the child count changed, or the entry is
// marked needing layout.
func (c *LayoutCache) Lookup(node RenderObject, constraints Constraints, childCount int) (rendering.Size, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cacheKey{node: node, constraints: constraints, childCount: childCount}]
	if !ok || entry.needsLayout {
		c.stats.Misses++
		return rendering.Size{}, false
	}
	c.stats.Hits++
	return entry.size, true
}

// Store records a freshly computed layout result, replacing any previous
// entries for the node (the node has exactly one current configuration).
func (c *LayoutCache) Store(node RenderObject, constraints Constraints, childCount int, size rendering.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(node)
	key := cacheKey{node: node, constraints: constraints, childCount: childCount}
	c.entries[key] = cacheEntry{size: size}
	c.byNode[node] = append(c.byNode[node], key)
}

// MarkNodeDirty taints all entries for a node so lookups miss until the next
// Store. Called when the node is marked needing layout.
func (c *LayoutCache) MarkNodeDirty(node RenderObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.byNode[node] {
		if entry, ok := c.entries[key]; ok {
			entry.needsLayout = true
			c.entries[key] = entry
		}
	}
}

// InvalidateNode drops all entries for a node. Called on unmount.
func (c *LayoutCache) InvalidateNode(node RenderObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(node)
}

func (c *LayoutCache) evictLocked(node RenderObject) {
	keys := c.byNode[node]
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.stats.Evictions += uint64(len(keys))
	delete(c.byNode, node)
}

// Len returns the number of live entries.
func (c *LayoutCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache counters.
func (c *LayoutCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
