package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/urbancanopy/ground-temp-etl/internal/domain"
	"github.com/urbancanopy/ground-temp-etl/internal/observability"
)

// CachedGroupSolver wraps a GroupSolver with an in-memory LRU cache, so
// repeated jobs over the same grid and day reuse solved series instead of
// re-iterating the energy balance.
type CachedGroupSolver struct {
	inner   GroupSolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGroupSolver creates a cache decorator around a group solver.
func NewCachedGroupSolver(inner GroupSolver, maxEntries int, metrics *observability.Metrics) *CachedGroupSolver {
	return &CachedGroupSolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// cacheKey extends the equivalence key with the solve environment: the same
// grid solved for a different day or site must not share entries. Latitude
// enters through the representative because evapotranspiration depends on it.
func cacheKey(g Group, env SolveEnv) string {
	return fmt.Sprintf("%s|%02d-%02d|%g|%g|%g|%.6f",
		g.Key, env.Profile.Month, env.Profile.Day,
		env.AltitudeM, env.MeridianLon, env.MeanLon, g.Representative.Lat)
}

func (c *CachedGroupSolver) SolveGroup(ctx context.Context, g Group, env SolveEnv) (domain.SolvedSeries, error) {
	key := cacheKey(g, env)
	if series, ok := c.cache.get(key); ok {
		c.metrics.SolveCache.WithLabelValues("hit").Inc()
		return series, nil
	}
	c.metrics.SolveCache.WithLabelValues("miss").Inc()

	series, err := c.inner.SolveGroup(ctx, g, env)
	if err != nil {
		return series, err
	}
	// Only cache converged series so an unconverged group gets another
	// chance on the next job.
	if series.Converged {
		c.cache.put(key, series)
	}
	return series, nil
}

// lruCache is a simple thread-safe LRU cache for solved series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.SolvedSeries
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.SolvedSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.SolvedSeries{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.SolvedSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
