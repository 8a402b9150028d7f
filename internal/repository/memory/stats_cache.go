package memory

import (
	"time"

	"peoples-bill-be/pkg/stats"

	"github.com/patrickmn/go-cache"
)

const platformKey = "platform"

// StatsCache keeps the last computed platform statistics. Entries expire after
// the configured TTL; callers may additionally demand a younger snapshot.
type StatsCache struct {
	cache *cache.Cache
}

func NewStatsCache(ttl time.Duration) *StatsCache {
	return &StatsCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *StatsCache) Save(p *stats.Platform) {
	c.cache.Set(platformKey, p, cache.DefaultExpiration)
}

// Get returns the cached statistics if they were computed no earlier than
// maxAge before now.
func (c *StatsCache) Get(now time.Time, maxAge time.Duration) (*stats.Platform, bool) {
	x, found := c.cache.Get(platformKey)
	if !found {
		return nil, false
	}
	p := x.(*stats.Platform)
	if now.Sub(p.LastUpdated) > maxAge {
		return nil, false
	}
	return p, true
}

func (c *StatsCache) Invalidate() {
	c.cache.Delete(platformKey)
}
