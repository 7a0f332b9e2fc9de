package cache

import (
	"strconv"
	"sync"
)

// Namespaced partitions an LRU cache into namespaces (one per user) that can
// be invalidated as a whole.
//
// Every key embeds the namespace's current generation. A reader builds its key
// before querying the store; if a writer invalidates in between, the value the
// reader stores lands under the old generation and is never returned again.
//
// Generations come from one counter shared by all namespaces. Namespaces
// without an entry in gens are at base. Once more than maxGens namespaces have
// been invalidated, gens is dropped and base moves past every generation
// handed out so far, which invalidates the whole cache at once.
type Namespaced[T any] struct {
	lru *LRUCache[T]

	mu      sync.Mutex
	gens    map[string]uint64
	seq     uint64
	base    uint64
	maxGens int
}

func NewNamespaced[T any](lru *LRUCache[T]) *Namespaced[T] {
	maxGens := lru.maxSize
	if maxGens < 1 {
		maxGens = 1
	}
	return &Namespaced[T]{lru: lru, gens: make(map[string]uint64), maxGens: maxGens}
}

// Key returns the cache key for key within ns at ns's current generation.
func (n *Namespaced[T]) Key(ns, key string) string {
	n.mu.Lock()
	gen, ok := n.gens[ns]
	if !ok {
		gen = n.base
	}
	n.mu.Unlock()
	return nsPrefix(ns) + strconv.FormatUint(gen, 10) + ":" + key
}

// nsPrefix is length-prefixed so no namespace is a prefix of another.
func nsPrefix(ns string) string {
	return strconv.Itoa(len(ns)) + ":" + ns + "@"
}

func (n *Namespaced[T]) Get(fullKey string) (T, bool) { return n.lru.Get(fullKey) }

func (n *Namespaced[T]) Set(fullKey string, v T) { n.lru.Set(fullKey, v) }

// Invalidate makes every entry of ns unreachable and frees them.
func (n *Namespaced[T]) Invalidate(ns string) int {
	n.mu.Lock()
	n.seq++
	if _, ok := n.gens[ns]; !ok && len(n.gens) >= n.maxGens {
		n.base = n.seq
		n.gens = make(map[string]uint64)
		n.mu.Unlock()
		return n.lru.DeletePrefix("")
	}
	n.gens[ns] = n.seq
	n.mu.Unlock()
	return n.lru.DeletePrefix(nsPrefix(ns))
}

// Generations reports how many namespaces carry their own generation.
func (n *Namespaced[T]) Generations() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.gens)
}

// CleanExpired implements Cleaner.
func (n *Namespaced[T]) CleanExpired() int { return n.lru.CleanExpired() }

func (n *Namespaced[T]) Size() int { return n.lru.Size() }
