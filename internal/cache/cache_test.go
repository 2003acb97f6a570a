package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMiss(t *testing.T) {
	c := New(time.Hour, 10)
	_, ok := c.Get("hello", "")
	assert.False(t, ok)
}

func TestSetGet(t *testing.T) {
	c := New(time.Hour, 10)
	c.Set("hello", "world", "")
	resp, ok := c.Get("hello", "")
	require.True(t, ok)
	assert.Equal(t, "world", resp)
}

func TestKeyNormalization(t *testing.T) {
	c := New(time.Hour, 10)
	c.Set("hello", "world", "ctx")
	resp, ok := c.Get("Hello ", "ctx")
	require.True(t, ok)
	assert.Equal(t, "world", resp)
}

func TestContextSeparatesEntries(t *testing.T) {
	c := New(time.Hour, 10)
	c.Set("hello", "first", "ctx-a")
	c.Set("hello", "second", "ctx-b")
	resp, ok := c.Get("hello", "ctx-a")
	require.True(t, ok)
	assert.Equal(t, "first", resp)
}

func TestTTLExpiry(t *testing.T) {
	now := time.Now()
	c := New(time.Minute, 10)
	c.now = func() time.Time { return now }
	c.Set("hello", "world", "")

	c.now = func() time.Time { return now.Add(59 * time.Second) }
	_, ok := c.Get("hello", "")
	assert.True(t, ok, "entry should survive just before the TTL boundary")

	c.now = func() time.Time { return now.Add(time.Minute) }
	_, ok = c.Get("hello", "")
	assert.False(t, ok, "entry should expire at the TTL boundary")

	// Expired entry was evicted, not just hidden
	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()
	assert.Equal(t, 0, size)
}

func TestCapacityEvictsOldest(t *testing.T) {
	now := time.Now()
	c := New(time.Hour, 2)

	c.now = func() time.Time { return now }
	c.Set("a", "ra", "")
	c.now = func() time.Time { return now.Add(time.Second) }
	c.Set("b", "rb", "")
	c.now = func() time.Time { return now.Add(2 * time.Second) }
	c.Set("c", "rc", "")

	_, ok := c.Get("a", "")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("b", "")
	assert.True(t, ok)
	_, ok = c.Get("c", "")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats().Size)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(time.Hour, 2)
	c.Set("a", "ra", "")
	c.Set("b", "rb", "")
	c.Set("a", "ra2", "")

	resp, ok := c.Get("a", "")
	require.True(t, ok)
	assert.Equal(t, "ra2", resp)
	_, ok = c.Get("b", "")
	assert.True(t, ok)
}

func TestSetResetsHits(t *testing.T) {
	c := New(time.Hour, 10)
	c.Set("a", "ra", "")
	c.Get("a", "")
	c.Get("a", "")
	assert.Equal(t, 2, c.Stats().TotalHits)

	c.Set("a", "ra2", "")
	assert.Equal(t, 0, c.Stats().TotalHits)
}

func TestStats(t *testing.T) {
	c := New(time.Hour, 10)
	assert.Equal(t, Stats{Size: 0, TotalHits: 0, HitRate: 0}, c.Stats())

	c.Set("a", "ra", "")
	c.Set("b", "rb", "")
	c.Get("a", "")
	c.Get("a", "")
	c.Get("b", "")

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 3, stats.TotalHits)
	assert.InDelta(t, 1.5, stats.HitRate, 0.001)
}
