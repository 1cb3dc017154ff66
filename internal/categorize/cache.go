package categorize

import "sync"

const defaultCacheSize = 1024

// lookupCache memoizes description lookups. Statements repeat the same
// merchants heavily, so even a small bound covers most rows. Eviction is
// insertion-order FIFO, which is plenty for a memo table.
type lookupCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]string
	order   []string
}

func newLookupCache(max int) *lookupCache {
	return &lookupCache{
		max:     max,
		entries: make(map[string]string, max),
	}
}

// The amount sign participates in the key because income-only rules and
// the defaults depend on it.
func cacheKey(desc string, isPositive bool) string {
	if isPositive {
		return "+" + desc
	}
	return "-" + desc
}

func (c *lookupCache) get(desc string, isPositive bool) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, ok := c.entries[cacheKey(desc, isPositive)]
	return cat, ok
}

func (c *lookupCache) put(desc string, isPositive bool, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(desc, isPositive)
	if _, ok := c.entries[key]; ok {
		return
	}
	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = category
	c.order = append(c.order, key)
}
