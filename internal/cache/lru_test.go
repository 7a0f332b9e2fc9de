package cache

import (
	"strconv"
	"testing"
	"time"
)

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("k2", "v2")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired too early")
	}
	now = now.Add(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d after cleanup", c.Size())
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("u1:a", 1)
	c.Set("u1:b", 2)
	c.Set("u2:a", 3)

	if n := c.DeletePrefix("u1:"); n != 2 {
		t.Fatalf("DeletePrefix = %d, want 2", n)
	}
	if _, ok := c.Get("u2:a"); !ok {
		t.Fatal("other prefix removed")
	}
}

func TestNamespaced_InvalidateDropsStaleFills(t *testing.T) {
	n := NewNamespaced(NewLRUCache[int](10, time.Minute))

	// A reader captures its key, then a writer invalidates before the
	// reader stores what it read.
	staleKey := n.Key("alice", "summary")
	n.Invalidate("alice")
	n.Set(staleKey, 41)

	fresh := n.Key("alice", "summary")
	if fresh == staleKey {
		t.Fatal("invalidate must change the key")
	}
	if _, ok := n.Get(fresh); ok {
		t.Fatal("stale fill must not be visible")
	}
	n.Set(fresh, 42)
	if v, ok := n.Get(n.Key("alice", "summary")); !ok || v != 42 {
		t.Fatalf("Get = %v, %v", v, ok)
	}
}

func TestNamespaced_IsolatesNamespaces(t *testing.T) {
	n := NewNamespaced(NewLRUCache[int](10, time.Minute))
	n.Set(n.Key("alice", "k"), 1)
	n.Set(n.Key("alice@x", "k"), 2)

	if removed := n.Invalidate("alice"); removed != 1 {
		t.Fatalf("Invalidate removed %d, want 1", removed)
	}
	if v, ok := n.Get(n.Key("alice@x", "k")); !ok || v != 2 {
		t.Fatal("invalidating alice must not touch alice@x")
	}
}

func TestNamespaced_GenerationsStayBounded(t *testing.T) {
	const size = 4
	n := NewNamespaced(NewLRUCache[int](size, time.Minute))

	var stale []string
	for i := 0; i < 50; i++ {
		user := "user" + strconv.Itoa(i)
		key := n.Key(user, "summary")
		n.Invalidate(user)
		n.Set(key, i)
		stale = append(stale, user)
		if g := n.Generations(); g > size {
			t.Fatalf("after %d users generations = %d, want at most %d", i+1, g, size)
		}
	}

	// Every fill captured before its namespace was invalidated stays hidden,
	// including across a reset of the generation table.
	for i, user := range stale {
		if v, ok := n.Get(n.Key(user, "summary")); ok {
			t.Fatalf("user %d sees stale fill %d", i, v)
		}
	}

	n.Set(n.Key("user0", "summary"), 7)
	if v, ok := n.Get(n.Key("user0", "summary")); !ok || v != 7 {
		t.Fatalf("Get after reset = %v, %v", v, ok)
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()

	m = NewManager()
	m.Register(NewLRUCache[int](1, time.Second))
	m.StartCleanup(time.Millisecond)
	m.Stop()
}
