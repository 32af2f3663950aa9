package cache

import (
	"testing"
	"time"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned a hit")
	}

	c.Set("a", "alpha")
	if got, ok := c.Get("a"); !ok || got != "alpha" {
		t.Errorf("Get(a) = %q, %v; want alpha, true", got, ok)
	}

	c.Set("a", "alpha2")
	if got, _ := c.Get("a"); got != "alpha2" {
		t.Errorf("Get(a) after overwrite = %q, want alpha2", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1 after overwrite", c.Size())
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // touch a so b is oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned a hit")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d, want 0 after expired read", c.Size())
	}
}

func TestLRU_DeleteAndFlush(t *testing.T) {
	c := NewLRU[int](4, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry returned a hit")
	}

	c.Flush()
	if c.Size() != 0 {
		t.Errorf("Size after Flush = %d, want 0", c.Size())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("flushed entry returned a hit")
	}
}

func TestLRU_CleanExpired(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if dropped := c.CleanExpired(); dropped != 2 {
		t.Errorf("CleanExpired dropped %d, want 2", dropped)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry was swept")
	}
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m := NewManager()
	m.Register(NewLRU[int](4, time.Minute))
	m.StartCleanup(time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop() // second call must not panic or block
}
