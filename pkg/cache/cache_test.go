// ABOUTME: Tests for the fixed-size cache
// ABOUTME: Tests eviction order, updates, stats and concurrent access
package cache

import (
	"sync"
	"testing"
)

func TestEvictsFirstInserted(t *testing.T) {
	c := NewFixedSize[int, string](16)
	for i := 0; i < 17; i++ {
		c.Put(i, "v")
	}

	if c.Len() != 16 {
		t.Fatalf("expected 16 entries, got %d", c.Len())
	}
	if c.Contains(0) {
		t.Error("first inserted key should have been evicted")
	}
	for i := 1; i < 17; i++ {
		if !c.Contains(i) {
			t.Errorf("key %d should be present", i)
		}
	}
}

func TestReadsDoNotReorder(t *testing.T) {
	c := NewFixedSize[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if c.Contains("a") {
		t.Error("a should be evicted even though it was read")
	}
	if !c.Contains("b") || !c.Contains("c") {
		t.Error("b and c should remain")
	}
}

func TestUpdateKeepsPosition(t *testing.T) {
	c := NewFixedSize[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)

	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("expected updated value 10, got %d", v)
	}

	c.Put("c", 3)
	if c.Contains("a") {
		t.Error("updated key should keep its original insertion position")
	}
}

func TestStats(t *testing.T) {
	c := NewFixedSize[int, int](4)
	c.Put(1, 1)
	c.Get(1)
	c.Get(1)
	c.Get(2)

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("expected 2 hits and 1 miss, got %d/%d", hits, misses)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", c.Len())
	}
	hits, misses = c.Stats()
	if hits != 0 || misses != 0 {
		t.Error("Clear should reset stats")
	}
}

func TestGetOrCreate(t *testing.T) {
	c := NewFixedSize[int, int](4)
	builds := 0
	build := func() int {
		builds++
		return 42
	}

	if v := c.GetOrCreate(7, build); v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if v := c.GetOrCreate(7, build); v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if builds != 1 {
		t.Errorf("expected one build, got %d", builds)
	}
}

func TestMinimumCapacity(t *testing.T) {
	c := NewFixedSize[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)
	if c.Len() != 1 || !c.Contains(2) {
		t.Error("zero capacity should behave as capacity 1")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewFixedSize[int, int](16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				c.Put(g*1000+i, i)
				c.Get(i)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Errorf("cache exceeded capacity: %d", c.Len())
	}
}
