package hdmap

import (
	"container/list"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LaneLocator answers nearest-lane and nearest-link queries. Both *Store and
// *CachedStore implement it.
type LaneLocator interface {
	NearestLane(p Point, radius float64, opts ...QueryOption) (LaneHit, bool)
	NearestLaneLink(p Point, radius float64) (LinkHit, bool)
}

var (
	_ LaneLocator = (*Store)(nil)
	_ LaneLocator = (*CachedStore)(nil)
)

// CachedStore memoizes nearest-lane and nearest-link queries of a Store in
// an LRU cache.
//
// Query positions are snapped to a grid of CacheQuantum, so nearby repeated
// queries share one entry. Entries remember the store generation they were
// computed at; any store mutation makes them stale.
//
// Example:
//
//	cached := hdmap.NewCachedStore(store, 4096)
//	hit, ok := cached.NearestLane(pos, 5, hdmap.WithYaw(heading))
type CachedStore struct {
	*Store

	maxEntries int
	quantum    float64
	entries    map[queryKey]*cacheEntry
	lru        *list.List // most recent at front
	mu         sync.Mutex

	hits   int
	misses int
}

// metresPerDegree converts the metric cache grid to degrees of longitude
// and latitude.
const metresPerDegree = 111320.0

// queryKey is a quantized query.
type queryKey struct {
	link   bool
	x, y   int64
	radius int64
	yaw    int64
	hasYaw bool
}

type cacheEntry struct {
	key          queryKey
	gen          uint64
	lane         LaneHit
	link         LinkHit
	ok           bool
	element      *list.Element
	lastAccessed time.Time
}

// NewCachedStore wraps store with a cache of at most maxEntries results.
// If maxEntries is 0, the store's CacheSize option is used.
func NewCachedStore(store *Store, maxEntries int) *CachedStore {
	if maxEntries <= 0 {
		maxEntries = store.opts.CacheSize
	}
	quantum := store.tol.CacheQuantum
	if store.mode == Geographic {
		quantum /= metresPerDegree
	}
	return &CachedStore{
		Store:      store,
		maxEntries: maxEntries,
		quantum:    quantum,
		entries:    make(map[queryKey]*cacheEntry),
		lru:        list.New(),
	}
}

func (c *CachedStore) quantize(v float64) int64 {
	return int64(math.Round(v / c.quantum))
}

func (c *CachedStore) key(p Point, radius float64, link bool) queryKey {
	return queryKey{
		link:   link,
		x:      c.quantize(p.X),
		y:      c.quantize(p.Y),
		radius: int64(math.Round(radius / c.Store.tol.CacheQuantum)),
	}
}

// NearestLane is Store.NearestLane through the cache. Queries with a lane
// type filter bypass it.
func (c *CachedStore) NearestLane(p Point, radius float64, opts ...QueryOption) (LaneHit, bool) {
	cfg := newQueryConfig(opts)
	if len(cfg.laneTypes) > 0 {
		return c.Store.NearestLane(p, radius, opts...)
	}
	k := c.key(p, radius, false)
	if cfg.hasYaw {
		k.yaw, k.hasYaw = int64(math.Round(cfg.yaw*1e3)), true
	}
	if e, ok := c.get(k); ok {
		return e.lane, e.ok
	}
	gen := c.Store.Generation()
	hit, ok := c.Store.NearestLane(p, radius, opts...)
	c.add(&cacheEntry{key: k, gen: gen, lane: hit, ok: ok})
	return hit, ok
}

// NearestLaneLink is Store.NearestLaneLink through the cache.
func (c *CachedStore) NearestLaneLink(p Point, radius float64) (LinkHit, bool) {
	k := c.key(p, radius, true)
	if e, ok := c.get(k); ok {
		return e.link, e.ok
	}
	gen := c.Store.Generation()
	hit, ok := c.Store.NearestLaneLink(p, radius)
	c.add(&cacheEntry{key: k, gen: gen, link: hit, ok: ok})
	return hit, ok
}

// get returns a current entry and moves it to the front of the LRU list.
// Stale entries are dropped.
func (c *CachedStore) get(k queryKey) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if ok && e.gen != c.Store.Generation() {
		c.lru.Remove(e.element)
		delete(c.entries, k)
		ok = false
	}
	if !ok {
		c.misses++
		c.Store.log.Debug("query cache miss", zap.Int64("x", k.x), zap.Int64("y", k.y))
		return nil, false
	}
	c.hits++
	e.lastAccessed = time.Now()
	c.lru.MoveToFront(e.element)
	return e, true
}

func (c *CachedStore) add(e *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[e.key]; ok {
		c.lru.Remove(old.element)
		delete(c.entries, e.key)
	}
	for c.lru.Len() >= c.maxEntries && c.lru.Len() > 0 {
		c.evictLRU()
	}
	e.lastAccessed = time.Now()
	e.element = c.lru.PushFront(e)
	c.entries[e.key] = e
}

// evictLRU removes the least recently used entry.
// Must be called with c.mu locked.
func (c *CachedStore) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	e := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.entries, e.key)
}

// Clear drops every cached result.
func (c *CachedStore) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[queryKey]*cacheEntry)
	c.lru.Init()
}

// Stats returns cache statistics.
func (c *CachedStore) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := CacheStats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
	}
	if back := c.lru.Back(); back != nil {
		st.OldestAccess = back.Value.(*cacheEntry).lastAccessed
	}
	return st
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Entries    int // Number of results currently cached
	MaxEntries int // Entry limit
	Hits       int // Queries answered from the cache
	Misses     int // Queries forwarded to the store

	// OldestAccess is when the next entry to be evicted was last used.
	// Zero when the cache is empty.
	OldestAccess time.Time
}
