// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"math"
	"sync"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultBudget is the memory budget used when none is configured.
const DefaultBudget = 4 << 30 // 4 GiB

// Sizer is implemented by values that know their own footprint.
type Sizer interface {
	Size() int64
}

// Memory is a process-local key/value store bounded by a total byte budget.
// When an insert would exceed the budget, least recently used entries are
// evicted until it fits. There is no TTL. Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	budget int64
	used   int64
	sizes  map[string]int64
	lru    *lru.LRU[string, any]
}

// NewMemory returns a cache holding at most budget bytes. A budget <= 0
// selects DefaultBudget.
func NewMemory(budget int64) *Memory {
	if budget <= 0 {
		budget = DefaultBudget
	}
	m := &Memory{
		budget: budget,
		sizes:  map[string]int64{},
	}
	// Entry count is unbounded; only bytes are limited.
	l, err := lru.NewLRU[string, any](math.MaxInt32, m.onEvict)
	if err != nil {
		panic(err)
	}
	m.lru = l
	return m
}

func (m *Memory) onEvict(key string, _ any) {
	m.used -= m.sizes[key]
	delete(m.sizes, key)
}

// Get returns the value stored under key and marks it recently used.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Get(key)
}

// Set stores value under key, evicting older entries as needed. A value
// bigger than the whole budget is not stored.
func (m *Memory) Set(key string, value any) {
	size := SizeOf(key, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Remove(key)
	if size > m.budget {
		log.Debugf("memory cache: %s (%s) exceeds budget %s, not cached",
			key, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(m.budget)))
		return
	}
	for m.used+size > m.budget {
		k, _, ok := m.lru.RemoveOldest()
		if !ok {
			break
		}
		log.Debugf("memory cache: evicted %s", k)
	}
	m.sizes[key] = size
	m.used += size
	m.lru.Add(key, value)
}

// Remove deletes key and reports whether it was present.
func (m *Memory) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Remove(key)
}

// Purge removes every entry.
func (m *Memory) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Purge()
}

// Keys returns the cached keys from oldest to newest.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Keys()
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// Size returns the bytes currently accounted to entries.
func (m *Memory) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}

// Budget returns the configured byte budget.
func (m *Memory) Budget() int64 {
	return m.budget
}

// SizeOf estimates the footprint of an entry.
func SizeOf(key string, value any) int64 {
	n := int64(len(key))
	switch v := value.(type) {
	case Sizer:
		n += v.Size()
	case string:
		n += int64(len(v))
	case []byte:
		n += int64(len(v))
	default:
		n += 8
	}
	return n
}

// ParseBudget parses a human size such as "4GiB" or "512MB".
func ParseBudget(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return math.MaxInt64, nil
	}
	return int64(n), nil
}
