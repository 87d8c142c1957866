package cache

import (
	"strconv"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	c := New[string, int](100)
	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestNewDefaultCapacity(t *testing.T) {
	c := New[string, int](0)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultCapacity, c.Capacity())
	}
}

func TestGetSet(t *testing.T) {
	c := New[string, int](10)

	c.Set("key1", 42)

	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	_, ok = c.Get("nonexistent")
	if ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestGetOrCreate(t *testing.T) {
	c := New[string, int](10)
	createCalled := 0

	val, err := c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 100, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 100 {
		t.Errorf("expected 100, got %d", val)
	}
	if createCalled != 1 {
		t.Errorf("expected create called once, got %d", createCalled)
	}

	val, err = c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 200, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 100 {
		t.Errorf("expected 100 (cached), got %d", val)
	}
	if createCalled != 1 {
		t.Errorf("expected create still called once, got %d", createCalled)
	}
}

func TestGetOrCreateError(t *testing.T) {
	c := New[string, int](10)

	wantErr := strconv.ErrRange
	_, err := c.GetOrCreate("key1", func() (int, error) {
		return 0, wantErr
	})
	if err != wantErr {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if c.Len() != 0 {
		t.Errorf("failed create must not cache, got %d entries", c.Len())
	}
}

func TestEviction(t *testing.T) {
	var evicted []string
	c := New(2, WithOnEvict(func(k string, v int) {
		evicted = append(evicted, k)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts "a"

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("expected [a] evicted, got %v", evicted)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
}

func TestLRUOrder(t *testing.T) {
	var evicted []string
	c := New(2, WithOnEvict(func(k string, v int) {
		evicted = append(evicted, k)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")    // a becomes most recent
	c.Set("c", 3) // evicts "b", not "a"

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("expected [b] evicted, got %v", evicted)
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
}

func TestDelete(t *testing.T) {
	var evicted []string
	c := New(10, WithOnEvict(func(k string, v int) {
		evicted = append(evicted, k)
	}))

	c.Set("key1", 42)

	if !c.Delete("key1") {
		t.Error("expected Delete to return true for existing key")
	}
	if _, ok := c.Get("key1"); ok {
		t.Error("expected key1 to be deleted")
	}
	if len(evicted) != 1 || evicted[0] != "key1" {
		t.Errorf("expected eviction hook for key1, got %v", evicted)
	}
	if c.Delete("nonexistent") {
		t.Error("expected Delete to return false for missing key")
	}
}

func TestDeleteFunc(t *testing.T) {
	var evicted []int
	c := New(10, WithOnEvict(func(k int, v string) {
		evicted = append(evicted, k)
	}))

	for i := 0; i < 6; i++ {
		c.Set(i, strconv.Itoa(i))
	}

	removed := c.DeleteFunc(func(k int, v string) bool {
		return k%2 == 0
	})
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 remaining, got %d", c.Len())
	}
	if len(evicted) != 3 {
		t.Errorf("expected 3 eviction hooks, got %d", len(evicted))
	}
	for _, k := range []int{1, 3, 5} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected odd key %d to survive", k)
		}
	}
}

func TestPurge(t *testing.T) {
	var evicted []string
	c := New(10, WithOnEvict(func(k string, v int) {
		evicted = append(evicted, k)
	}))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after Purge, got %d", c.Len())
	}
	if len(evicted) != 2 {
		t.Errorf("expected 2 eviction hooks, got %d", len(evicted))
	}

	// Cache remains usable after Purge.
	c.Set("c", 3)
	if _, ok := c.Get("c"); !ok {
		t.Error("expected cache to work after Purge")
	}
}

func TestStats(t *testing.T) {
	c := New[string, int](2)

	c.Set("a", 1)
	c.Get("a")       // hit
	c.Get("missing") // miss
	c.Set("b", 2)
	c.Set("c", 3) // eviction

	s := c.Stats()
	if s.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", s.Misses)
	}
	if s.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", s.Evictions)
	}
	if s.Len != 2 {
		t.Errorf("expected len 2, got %d", s.Len)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](128)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				k := (seed*31 + i) % 200
				c.Set(k, i)
				c.Get(k)
				_, _ = c.GetOrCreate(k+1, func() (int, error) { return i, nil })
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > c.Capacity() {
		t.Errorf("cache exceeded capacity: %d > %d", c.Len(), c.Capacity())
	}
}
