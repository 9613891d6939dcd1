package cache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is an in-process response cache with per-entry TTLs and prefix-based
// invalidation. Expired entries are evicted lazily on access; Sweep can be
// run in the background to reclaim entries nobody reads again.
type Cache struct {
	entries *xsync.MapOf[string, entry]
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: xsync.NewMapOf[string, entry](),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or ok=false if the key is absent or
// its entry has expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	item, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	if c.now().After(item.expiresAt) {
		c.entries.Delete(key)
		return nil, false
	}
	return item.value, true
}

func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.entries.Store(key, entry{value: value, expiresAt: c.now().Add(ttl)})
}

func (c *Cache) Delete(key string) {
	c.entries.Delete(key)
}

// ClearPattern removes every entry matching pattern and reports how many were
// removed. A pattern ending in '*' matches all keys with that prefix
// ("courses:*" clears the whole courses family); anything else is an exact
// key match.
func (c *Cache) ClearPattern(pattern string) int {
	removed := 0
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		c.entries.Range(func(key string, _ entry) bool {
			if strings.HasPrefix(key, prefix) {
				c.entries.Delete(key)
				removed++
			}
			return true
		})
		return removed
	}
	if _, ok := c.entries.LoadAndDelete(pattern); ok {
		removed = 1
	}
	return removed
}

func (c *Cache) Len() int {
	return c.entries.Size()
}

// Sweep periodically drops expired entries until ctx is cancelled.
func (c *Cache) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := c.now()
			c.entries.Range(func(key string, item entry) bool {
				if now.After(item.expiresAt) {
					c.entries.Delete(key)
				}
				return true
			})
		case <-ctx.Done():
			return
		}
	}
}

// ListKey builds a stable cache key for a filtered list request:
// "<family>:list:<hash of sorted params>". Keys share the family prefix so a
// single ClearPattern("<family>:*") invalidates every cached variant.
func ListKey(family string, params map[string]string) string {
	if len(params) == 0 {
		return family + ":list"
	}
	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return family + ":list"
	}
	sort.Strings(names)
	digest := xxhash.New()
	for _, name := range names {
		_, _ = digest.WriteString(name)
		_, _ = digest.WriteString("=")
		_, _ = digest.WriteString(params[name])
		_, _ = digest.WriteString(";")
	}
	return family + ":list:" + strconv.FormatUint(digest.Sum64(), 16)
}

// ItemKey builds the cache key for a single resource.
func ItemKey(family, id string) string {
	return family + ":item:" + id
}
