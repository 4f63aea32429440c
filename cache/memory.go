package cache

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/restfetch/restfetch/types"
)

// MemoryTier is the volatile tier of the store: a plain map guarded by a
// RWMutex. Freshness is not evaluated here; the store decides validity so
// stale entries stay readable for stale-tolerant loads.
type MemoryTier struct {
	mu     sync.RWMutex
	data   map[string]*types.CacheEntry
	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewMemoryTier() *MemoryTier {
	return &MemoryTier{
		data: make(map[string]*types.CacheEntry),
	}
}

func (m *MemoryTier) Get(key string) (*types.CacheEntry, bool) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()

	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}

	return entry, ok
}

func (m *MemoryTier) Set(key string, entry *types.CacheEntry) {
	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()
}

func (m *MemoryTier) Delete(key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}

func (m *MemoryTier) DeleteAll() {
	m.mu.Lock()
	m.data = make(map[string]*types.CacheEntry)
	m.mu.Unlock()
}

func (m *MemoryTier) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

func (m *MemoryTier) HitMiss() (hits, misses uint64) {
	return m.hits.Load(), m.misses.Load()
}
