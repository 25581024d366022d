package price

import (
	"price-alert-bot/internal/types"
	"sync"
	"time"
)

type cacheItem struct {
	Quote      types.Quote
	Expiration time.Time
}

// quoteCache keeps quotes for a short time so alerts on the same asset share one request
type quoteCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cacheItem
	now   func() time.Time
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		ttl:   ttl,
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

func (c *quoteCache) get(coinID string) (types.Quote, bool) {
	if c.ttl <= 0 {
		return types.Quote{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[coinID]
	if !found {
		return types.Quote{}, false
	}
	if !c.now().Before(item.Expiration) {
		delete(c.items, coinID)
		return types.Quote{}, false
	}
	return item.Quote, true
}

func (c *quoteCache) set(coinID string, quote types.Quote) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[coinID] = cacheItem{
		Quote:      quote,
		Expiration: c.now().Add(c.ttl),
	}
}
