package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_GetSetAndExpiry(t *testing.T) {
	c := NewLRU(2, 10*time.Millisecond)
	c.Set("a", 1, 0)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(15 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRU_EvictsOldestOnCapacity(t *testing.T) {
	var evicted []string
	c := NewLRUWithEvict(2, time.Minute, func(key string) { evicted = append(evicted, key) })
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	assert.Equal(t, []string{"a"}, evicted)
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_GetPromotesToFront(t *testing.T) {
	c := NewLRU(2, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Get("a")
	c.Set("c", 3, 0)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted as least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRU_Purge(t *testing.T) {
	c := NewLRU(4, time.Minute)
	c.Set("a", 1, 0)
	c.Purge()
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestFingerprint_NormalizesWhitespaceAndCase(t *testing.T) {
	a := Fingerprint("wealth", "default", "What is my ALLOCATION?")
	b := Fingerprint("wealth", "default", "what   is my allocation?")
	assert.Equal(t, a, b)
}

func TestFingerprint_FieldOrderMatters(t *testing.T) {
	a := Fingerprint("wealth", "default", "hello")
	b := Fingerprint("default", "wealth", "hello")
	assert.NotEqual(t, a, b)
}

func TestResponseCache_MissThenHit(t *testing.T) {
	rc := New(8, time.Minute)
	_, ok := rc.Get("d", "p", "q", nil)
	assert.False(t, ok)

	rc.Set("d", "p", "q", nil, "answer", 0)
	v, ok := rc.Get("d", "p", "q", nil)
	require.True(t, ok)
	assert.Equal(t, "answer", v)

	stats := rc.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestResponseCache_AppContextAlwaysBypasses(t *testing.T) {
	rc := New(8, time.Minute)
	appCtx := map[string]interface{}{"page": "dashboard"}

	rc.Set("d", "p", "q", appCtx, "answer", 0)
	_, ok := rc.Get("d", "p", "q", nil)
	assert.False(t, ok, "app-context write must not pollute the shared cache")

	_, ok = rc.Get("d", "p", "q", appCtx)
	assert.False(t, ok, "app-context read must always miss")
}

func TestResponseCache_EvictionUpdatesSizeAndStats(t *testing.T) {
	rc := New(1, time.Minute)
	rc.Set("d", "p", "q1", nil, "a1", 0)
	rc.Set("d", "p", "q2", nil, "a2", 0)

	stats := rc.Stats()
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 1, stats.Size)
}

func TestResponseCache_Invalidate(t *testing.T) {
	rc := New(8, time.Minute)
	rc.Set("d", "p", "q", nil, "answer", 0)
	rc.Invalidate()

	_, ok := rc.Get("d", "p", "q", nil)
	assert.False(t, ok)
	assert.Equal(t, 0, rc.Stats().Size)
}
