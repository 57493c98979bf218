package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Fingerprint computes the cache key for a query: SHA-256 of
// domain‖prompt_name‖normalized(text), per spec.md's field ordering
// (the Python original hashes query|domain|prompt_name instead).
// normalize lowercases and collapses whitespace so that trivially
// different phrasings of the same question still hit.
func Fingerprint(domain, promptName, text string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write([]byte(promptName))
	h.Write([]byte{0})
	h.Write([]byte(normalize(text)))
	return hex.EncodeToString(h.Sum(nil))
}

func normalize(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

// Stats is a point-in-time read of the response cache's counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// ResponseCache wraps the base LRU with the query-pipeline's
// fingerprinting rule and hit/miss/eviction/size bookkeeping. A
// non-empty app_context always bypasses the cache on both read and
// write, per spec.md §4.1 — personalized context must never be served
// from, or pollute, the shared cache.
type ResponseCache struct {
	lru       Cache
	hits      int64
	misses    int64
	evictions int64

	mu   sync.Mutex
	size int
}

// New creates a response cache with the given capacity and TTL.
func New(capacity int, ttl time.Duration) *ResponseCache {
	rc := &ResponseCache{}
	rc.lru = NewLRUWithEvict(capacity, ttl, func(string) {
		atomic.AddInt64(&rc.evictions, 1)
		rc.mu.Lock()
		if rc.size > 0 {
			rc.size--
		}
		rc.mu.Unlock()
	})
	return rc
}

// Get looks up a cached value. appContext non-empty always misses.
func (rc *ResponseCache) Get(domain, promptName, text string, appContext map[string]interface{}) (any, bool) {
	if len(appContext) > 0 {
		return nil, false
	}
	key := Fingerprint(domain, promptName, text)
	v, ok := rc.lru.Get(key)
	if ok {
		atomic.AddInt64(&rc.hits, 1)
	} else {
		atomic.AddInt64(&rc.misses, 1)
	}
	return v, ok
}

// Set stores a value, skipped entirely when appContext is non-empty.
func (rc *ResponseCache) Set(domain, promptName, text string, appContext map[string]interface{}, value any, ttl time.Duration) {
	if len(appContext) > 0 {
		return
	}
	key := Fingerprint(domain, promptName, text)
	rc.mu.Lock()
	rc.size++
	rc.mu.Unlock()
	rc.lru.Set(key, value, ttl)
}

// Stats returns a snapshot of the cache's counters.
func (rc *ResponseCache) Stats() Stats {
	rc.mu.Lock()
	size := rc.size
	rc.mu.Unlock()
	return Stats{
		Hits:      atomic.LoadInt64(&rc.hits),
		Misses:    atomic.LoadInt64(&rc.misses),
		Evictions: atomic.LoadInt64(&rc.evictions),
		Size:      size,
	}
}

// Purge clears the cache without resetting hit/miss/eviction counters.
func (rc *ResponseCache) Purge() {
	rc.lru.Purge()
	rc.mu.Lock()
	rc.size = 0
	rc.mu.Unlock()
}

// Invalidate drops every cached response. Takes no scoping argument:
// per spec §4.1, a narrower domain-scoped invalidation was considered
// and rejected as out of scope.
func (rc *ResponseCache) Invalidate() {
	rc.Purge()
}
