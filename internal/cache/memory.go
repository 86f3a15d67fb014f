// Package cache provides the facade's response cache stores: a bounded
// in-memory TTL store with LRU eviction, and a Redis-backed store for
// multi-instance deployments.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/itzcole03/atlas/pkg/contracts"
)

// DefaultCapacity bounds the memory store when no capacity is configured.
const DefaultCapacity = 1024

// Memory is a mutex-guarded in-memory cache with per-entry TTL and a
// capacity bound enforced by least-recently-used eviction. Expired entries
// are treated as absent and removed lazily on the next lookup; there is no
// background sweep.
type Memory struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	lru      *list.List // front = most recently used

	// now is swappable for TTL boundary tests.
	now func() time.Time

	// eviction counter, read by metrics
	evictions uint64
}

type memoryEntry struct {
	key       string
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
}

var _ contracts.CacheStore = (*Memory)(nil)

// NewMemory creates a memory store bounded to capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns the payload for key. An entry is valid iff
// now - createdAt < ttl; expired entries are deleted and reported as misses.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	if m.now().Sub(entry.createdAt) >= entry.ttl {
		m.removeLocked(elem)
		return nil, false, nil
	}

	m.lru.MoveToFront(elem)
	return entry.payload, true, nil
}

// Set stores payload under key, evicting the least recently used entry when
// the store is at capacity.
func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.payload = payload
		entry.createdAt = m.now()
		entry.ttl = ttl
		m.lru.MoveToFront(elem)
		return nil
	}

	for len(m.entries) >= m.capacity {
		oldest := m.lru.Back()
		if oldest == nil {
			break
		}
		m.removeLocked(oldest)
		m.evictions++
	}

	elem := m.lru.PushFront(&memoryEntry{
		key:       key,
		payload:   payload,
		createdAt: m.now(),
		ttl:       ttl,
	})
	m.entries[key] = elem
	return nil
}

// Delete removes a single entry.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		m.removeLocked(elem)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, elem := range m.entries {
		if strings.HasPrefix(key, prefix) {
			m.removeLocked(elem)
			removed++
		}
	}
	return removed, nil
}

// Flush removes all entries.
func (m *Memory) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*list.Element)
	m.lru.Init()
	return nil
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been touched.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

// Evictions returns how many entries have been evicted for capacity.
func (m *Memory) Evictions() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictions
}

// SetClock overrides the time source. Test hook.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) removeLocked(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	delete(m.entries, entry.key)
	m.lru.Remove(elem)
}
