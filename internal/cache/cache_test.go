package cache

import (
	"sync"
	"testing"
	"time"
)

func TestGetReturnsValueBeforeTTL(t *testing.T) {
	c := New()
	c.Set("courses:list", []string{"a"}, 100*time.Millisecond)
	value, ok := c.Get("courses:list")
	if !ok {
		t.Fatalf("expected hit immediately after Set")
	}
	items, ok := value.([]string)
	if !ok || len(items) != 1 || items[0] != "a" {
		t.Fatalf("unexpected cached value: %#v", value)
	}
}

func TestGetMissesAfterTTL(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("courses:list", "value", 100*time.Millisecond)

	now = now.Add(150 * time.Millisecond)
	if _, ok := c.Get("courses:list"); ok {
		t.Fatalf("expected miss after TTL elapsed")
	}
	if c.Len() != 0 {
		t.Fatalf("expected lazy eviction on access, still %d entries", c.Len())
	}
}

func TestClearPatternRemovesPrefixOnly(t *testing.T) {
	c := New()
	c.Set("courses:list", 1, time.Minute)
	c.Set("courses:item:c-001", 2, time.Minute)
	c.Set("news:list", 3, time.Minute)

	removed := c.ClearPattern("courses:*")
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if _, ok := c.Get("courses:list"); ok {
		t.Errorf("courses:list should be gone")
	}
	if _, ok := c.Get("courses:item:c-001"); ok {
		t.Errorf("courses:item:c-001 should be gone")
	}
	if _, ok := c.Get("news:list"); !ok {
		t.Errorf("news:list should survive")
	}
}

func TestClearPatternExactKey(t *testing.T) {
	c := New()
	c.Set("settings", "x", time.Minute)
	if removed := c.ClearPattern("settings"); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if removed := c.ClearPattern("settings"); removed != 0 {
		t.Fatalf("second clear removed = %d, want 0", removed)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set("courses:list", n, time.Minute)
				c.Get("courses:list")
				c.ClearPattern("courses:*")
			}
		}(i)
	}
	wg.Wait()
}

func TestListKeyStableAcrossParamOrder(t *testing.T) {
	a := ListKey("courses", map[string]string{"category": "01", "level": "BEGINNER"})
	b := ListKey("courses", map[string]string{"level": "BEGINNER", "category": "01"})
	if a != b {
		t.Fatalf("keys differ for identical params: %q vs %q", a, b)
	}
	other := ListKey("courses", map[string]string{"category": "02", "level": "BEGINNER"})
	if a == other {
		t.Fatalf("keys collide for different params")
	}
}

func TestListKeyIgnoresEmptyParams(t *testing.T) {
	withEmpty := ListKey("courses", map[string]string{"category": ""})
	if withEmpty != "courses:list" {
		t.Fatalf("empty params should collapse to base key, got %q", withEmpty)
	}
}
