package metering

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ResultCache stores marshalled tool results under (tool, input) keys with a
// per-entry TTL. Backed by an expirable LRU so a misbehaving caller cannot
// grow it without bound.
type ResultCache struct {
	lru *expirable.LRU[string, entry]
}

type entry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

// NewResultCache creates a cache holding at most size entries.
func NewResultCache(size int) *ResultCache {
	if size <= 0 {
		size = 1024
	}
	// per-entry TTLs vary by tool, so expiry is checked on read and the LRU
	// TTL acts as an upper bound
	return &ResultCache{lru: expirable.NewLRU[string, entry](size, nil, time.Hour)}
}

// Key derives the cache key from the tool name and raw input.
func Key(tool string, input []byte) string {
	sum := sha256.Sum256(append([]byte(tool+"\x00"), input...))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached payload if present and unexpired.
func (c *ResultCache) Get(key string) (json.RawMessage, bool) {
	e, ok := c.lru.Get(key)
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.payload, true
}

// Put stores a payload with the given TTL. Zero or negative TTLs are ignored.
func (c *ResultCache) Put(key string, payload json.RawMessage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.lru.Add(key, entry{payload: payload, expiresAt: time.Now().Add(ttl)})
}
