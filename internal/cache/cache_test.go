package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[string](Options{Capacity: 10, TTL: time.Minute})

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("k", "v1")
	if got, ok := c.Get("k"); !ok || got != "v1" {
		t.Errorf("got %q, %v", got, ok)
	}

	// 同 key 重复写：last-write-wins
	c.Set("k", "v2")
	if got, _ := c.Get("k"); got != "v2" {
		t.Errorf("got %q", got)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d", c.Len())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New[int](Options{Capacity: 10, TTL: time.Minute})

	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	c.Set("k", 42)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", c.Len())
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New[int](Options{Capacity: 3, TTL: time.Minute})

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	// 访问 k0 把它提到最前，k1 成为 LRU
	c.Get("k0")
	c.Set("k3", 3)

	if _, ok := c.Get("k1"); ok {
		t.Error("k1 should have been evicted")
	}
	for _, key := range []string{"k0", "k2", "k3"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should survive", key)
		}
	}
	if c.Len() != 3 {
		t.Errorf("len = %d", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := New[int](Options{Capacity: 10, TTL: time.Minute})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len = %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared cache should miss")
	}
}

func TestDefaults(t *testing.T) {
	c := New[int](Options{})
	if c.capacity != DefaultCapacity || c.ttl != DefaultTTL {
		t.Errorf("capacity=%d ttl=%v", c.capacity, c.ttl)
	}
}
