package quote

import (
	"sync"

	"trigger-trading-bot/internal/types"
)

// Cache holds the most recently observed quote per symbol with thread-safe
// access. Staleness is the caller's concern: the cache never expires entries,
// and it is bounded by the number of actively monitored symbols.
type Cache struct {
	quotes map[string]types.Quote
	mu     sync.RWMutex
}

// NewCache creates an empty quote cache
func NewCache() *Cache {
	return &Cache{
		quotes: make(map[string]types.Quote),
	}
}

// Get returns the latest quote for a symbol, if one has been observed
func (c *Cache) Get(symbol string) (types.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.quotes[symbol]
	return q, ok
}

// Put overwrites any prior entry for the quote's symbol
func (c *Cache) Put(q types.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes[q.Symbol] = q
}

// PutAll stores every quote in one pass
func (c *Cache) PutAll(quotes []types.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range quotes {
		c.quotes[q.Symbol] = q
	}
}

// Symbols returns the symbols currently held
func (c *Cache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.quotes))
	for s := range c.quotes {
		out = append(out, s)
	}
	return out
}

// Len returns the number of cached symbols
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.quotes)
}
