package tenant

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// DefaultCacheTTL keeps tenant lookups fresh. Stale-active reads are a
// correctness risk (a deactivated tenant kept admitted), so the TTL skews
// short; deactivation events additionally invalidate eagerly.
const DefaultCacheTTL = 30 * time.Second

const defaultCacheMaxEntries = 10_000

type cacheEntry struct {
	tenant    *domain.Tenant
	expiresAt time.Time
}

// lookupCache caches positive tenant lookups keyed by the hint that
// resolved them. Population is idempotent and safe to race: duplicate
// fills are harmless, only staleness matters.
type lookupCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	byTenant   map[uuid.UUID][]string
	ttl        time.Duration
	maxEntries int
}

func newLookupCache(ttl time.Duration, maxEntries int) *lookupCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &lookupCache{
		entries:    make(map[string]cacheEntry),
		byTenant:   make(map[uuid.UUID][]string),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *lookupCache) get(key string) (*domain.Tenant, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.tenant, true
}

func (c *lookupCache) set(key string, t *domain.Tenant) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
		if len(c.entries) >= c.maxEntries {
			return
		}
	}
	c.entries[key] = cacheEntry{tenant: t, expiresAt: now.Add(c.ttl)}
	c.byTenant[t.ID] = append(c.byTenant[t.ID], key)
}

// invalidate drops every cached entry for the tenant. Called on tenant
// deactivation so a deactivated tenant is rejected immediately rather than
// after TTL expiry.
func (c *lookupCache) invalidate(tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.byTenant[tenantID] {
		delete(c.entries, key)
	}
	delete(c.byTenant, tenantID)
}

// evictLocked drops expired entries; caller holds the write lock.
func (c *lookupCache) evictLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	for id, keys := range c.byTenant {
		live := keys[:0]
		for _, key := range keys {
			if _, ok := c.entries[key]; ok {
				live = append(live, key)
			}
		}
		if len(live) == 0 {
			delete(c.byTenant, id)
		} else {
			c.byTenant[id] = live
		}
	}
}
