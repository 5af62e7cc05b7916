// Package cache holds the shared in-memory read cache. There is exactly one
// invalidation entry point, Invalidate, which flushes everything; structural
// mutations must never patch individual keys.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Key prefixes namespace the cached entities.
const (
	prefixCommodity = "commodity:"
	prefixAccount   = "account:"
	prefixBalance   = "balance:"
)

// Cache is a process-wide read cache for resolved commodities, accounts and
// all-time balances. Reads may share it concurrently; go-cache handles the
// locking.
type Cache struct {
	c *gocache.Cache
}

// New creates an empty cache. Entries never expire on their own; they only
// leave via Invalidate.
func New() *Cache {
	return &Cache{c: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

// Invalidate flushes the whole cache. Over-invalidation is deliberate:
// clearing everything can never leave a stale entry behind.
func (c *Cache) Invalidate() {
	c.c.Flush()
}

// GetCommodity looks up a cached commodity resolution by code.
func (c *Cache) GetCommodity(code string) (any, bool) {
	return c.c.Get(prefixCommodity + code)
}

// SetCommodity caches a commodity resolution by code.
func (c *Cache) SetCommodity(code string, v any) {
	c.c.Set(prefixCommodity+code, v, gocache.NoExpiration)
}

// GetAccount looks up a cached account by UID.
func (c *Cache) GetAccount(uid string) (any, bool) {
	return c.c.Get(prefixAccount + uid)
}

// SetAccount caches an account by UID.
func (c *Cache) SetAccount(uid string, v any) {
	c.c.Set(prefixAccount+uid, v, gocache.NoExpiration)
}

// GetBalance looks up a cached all-time balance by account UID.
func (c *Cache) GetBalance(uid string) (any, bool) {
	return c.c.Get(prefixBalance + uid)
}

// SetBalance caches an all-time balance by account UID.
func (c *Cache) SetBalance(uid string, v any) {
	c.c.Set(prefixBalance+uid, v, gocache.NoExpiration)
}
