package rates

import (
	"fmt"
	"sync"
	"time"

	"fundraising-backend/internal/models"
)

// Source is the provider the cache refreshes from.
type Source interface {
	GetRate(currencyCode string) (Quote, error)
}

// Cache memoizes quotes per currency with a short TTL. Entries are
// only ever superseded, never deleted; when a refresh fails and a
// previous quote exists, the stale quote is served instead of failing
// the caller.
type Cache struct {
	source Source
	ttl    time.Duration

	mu      sync.RWMutex
	entries map[string]Quote

	now func() time.Time
}

func NewCache(source Source, ttl time.Duration) *Cache {
	return &Cache{
		source:  source,
		ttl:     ttl,
		entries: make(map[string]Quote),
		now:     time.Now,
	}
}

// GetRate returns a cached quote when fresh, otherwise refreshes from
// the source. The second return reports whether the quote is stale
// (served past its TTL because the refresh failed).
func (c *Cache) GetRate(currencyCode string) (Quote, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[currencyCode]
	c.mu.RUnlock()

	if ok && c.now().Sub(entry.FetchedAt) < c.ttl {
		return entry, false, nil
	}

	quote, err := c.source.GetRate(currencyCode)
	if err != nil {
		if ok {
			return entry, true, nil
		}
		return Quote{}, false, fmt.Errorf("%w: no cached rate for %s: %v", models.ErrExternalService, currencyCode, err)
	}

	c.mu.Lock()
	c.entries[currencyCode] = quote
	c.mu.Unlock()

	return quote, false, nil
}
