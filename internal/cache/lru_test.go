package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// TestLRUCacheEviction tests size-based eviction
func TestLRUCacheEviction(t *testing.T) {
	var evicted []string
	c := NewLRUCache[string](3, time.Hour, WithEvictCallback(func(key, _ string) {
		evicted = append(evicted, key)
	}))

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // Should evict key1

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if len(evicted) != 1 || evicted[0] != "key1" {
		t.Errorf("expected key1 eviction callback, got %v", evicted)
	}
}

func TestLRUCacheGetRefreshesRecency(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b, the least recently used

	if _, found := c.Get("b"); found {
		t.Error("b should have been evicted")
	}
	if _, found := c.Get("a"); !found {
		t.Error("a should still exist")
	}
}

// TestLRUCacheTTLExpiration tests idle expiry with a sliding window
func TestLRUCacheTTLExpiration(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[string](100, time.Minute, WithClock[string](clock.Now))

	c.Set("key1", "value1")

	clock.Advance(50 * time.Second)
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should exist before the TTL")
	}

	// The Get above extended the entry.
	clock.Advance(50 * time.Second)
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should still exist after being touched")
	}

	clock.Advance(61 * time.Second)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	clock := newClock()
	var evicted []string
	c := NewLRUCache[int](10, time.Minute,
		WithClock[int](clock.Now),
		WithEvictCallback(func(key string, _ int) { evicted = append(evicted, key) }))

	c.Set("old1", 1)
	c.Set("old2", 2)
	clock.Advance(2 * time.Minute)
	c.Set("fresh", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
	if len(evicted) != 2 {
		t.Errorf("expected 2 eviction callbacks, got %v", evicted)
	}
}

func TestLRUCacheDeleteAndRange(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")

	var keys []string
	c.Range(func(key string, _ int) { keys = append(keys, key) })
	if len(keys) != 1 || keys[0] != "b" {
		t.Errorf("Range visited %v, want [b]", keys)
	}
}

func TestSweeper(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Minute, WithClock[int](clock.Now))
	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(time.Hour)
	c.Set("c", 3)

	s := NewSweeper(nil)
	s.Register(c)
	if n := s.Sweep(); n != 2 {
		t.Errorf("Sweep() = %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}

	s.Stop() // stopping a sweeper that never started is a no-op
	s.Start(time.Millisecond)
	s.Start(time.Millisecond)
	s.Stop()
	s.Stop()
	s.Start(time.Millisecond)
	s.Stop()
}
