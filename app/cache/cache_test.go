package cache

import (
	"sync"
	"testing"
	"time"
)

func TestCacheSetAndGet(t *testing.T) {
	c := New(30)

	published := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	c.Set("item-1", "1.2.3", &published)

	entry, ok := c.Get("item-1")
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if entry.LatestVersion != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", entry.LatestVersion)
	}
	if entry.PublishedAt == nil || !entry.PublishedAt.Equal(published) {
		t.Errorf("Expected published at %v, got %v", published, entry.PublishedAt)
	}
	if entry.TTLMinutes != 30 {
		t.Errorf("Expected TTL 30, got %d", entry.TTLMinutes)
	}
}

func TestCacheMiss(t *testing.T) {
	c := New(30)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected cache miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(0)

	c.Set("item-1", "1.2.3", nil)

	// TTL of zero expires as soon as any time has elapsed
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("item-1"); ok {
		t.Error("Expected expired entry to read as absent")
	}
	if c.Len() != 1 {
		t.Errorf("Expected expired entry to stay stored, len = %d", c.Len())
	}
}

func TestCacheSetTTLAffectsOnlyNewEntries(t *testing.T) {
	c := New(30)

	c.Set("old", "1.0.0", nil)
	c.SetTTL(0)
	c.Set("new", "2.0.0", nil)

	time.Sleep(time.Millisecond)

	if _, ok := c.Get("old"); !ok {
		t.Error("Expected entry created before SetTTL to keep its original TTL")
	}
	if _, ok := c.Get("new"); ok {
		t.Error("Expected entry created after SetTTL to use the new TTL")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New(30)

	c.Set("item-1", "1.2.3", nil)
	c.Invalidate("item-1")

	if _, ok := c.Get("item-1"); ok {
		t.Error("Expected invalidated entry to be absent")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(30)

	c.Set("item-1", "1.2.3", nil)
	c.Set("item-2", "4.5.6", nil)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache after clear, len = %d", c.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New(30)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set("shared", "1.0.0", nil)
		}()
		go func() {
			defer wg.Done()
			c.Get("shared")
		}()
	}
	wg.Wait()

	if _, ok := c.Get("shared"); !ok {
		t.Error("Expected entry to survive concurrent access")
	}
}
