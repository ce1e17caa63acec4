// Package cache provides a small typed wrapper around an in-process TTL
// cache, used for read-mostly directory data (university listings, per-letter
// club indexes). Entries expire on their own; writers call Invalidate after
// mutations so readers never serve stale listings longer than one TTL.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Directory is a TTL cache for directory listing payloads.
type Directory struct {
	c *gocache.Cache
}

// NewDirectory constructs a cache whose entries expire after ttl. Expired
// entries are purged in the background at twice the TTL.
func NewDirectory(ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Directory{c: gocache.New(ttl, 2*ttl)}
}

// Get returns the cached value for key, if present and fresh.
func (d *Directory) Get(key string) (any, bool) {
	return d.c.Get(key)
}

// Set stores value under key with the default TTL.
func (d *Directory) Set(key string, value any) {
	d.c.SetDefault(key, value)
}

// Invalidate drops a single key.
func (d *Directory) Invalidate(key string) {
	d.c.Delete(key)
}

// Flush drops every entry. Used after writes that affect multiple listings.
func (d *Directory) Flush() {
	d.c.Flush()
}
