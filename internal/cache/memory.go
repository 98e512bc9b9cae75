package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an in-process LRU cache with optional TTL.
type Memory struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	list  *list.List
	items map[uint64]*list.Element

	counters
}

type memoryEntry struct {
	key       uint64
	entry     *Entry
	expiresAt time.Time
}

// DefaultSize is the memory cache capacity used when none is configured.
const DefaultSize = 1000

// NewMemory creates a memory cache holding at most maxSize entries. A ttl
// of 0 keeps entries until they are evicted.
func NewMemory(maxSize int, ttl time.Duration) *Memory {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	return &Memory{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		list:    list.New(),
		items:   make(map[uint64]*list.Element, maxSize),
	}
}

func (m *Memory) Get(_ context.Context, key uint64) (*Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		m.record(false)
		return nil, false, nil
	}
	me := elem.Value.(*memoryEntry)
	if m.ttl > 0 && m.now().After(me.expiresAt) {
		m.remove(elem)
		m.record(false)
		return nil, false, nil
	}
	m.list.MoveToFront(elem)
	m.record(true)
	return me.entry, true, nil
}

func (m *Memory) Put(_ context.Context, key uint64, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt := m.now().Add(m.ttl)
	if elem, ok := m.items[key]; ok {
		me := elem.Value.(*memoryEntry)
		me.entry = e
		me.expiresAt = expiresAt
		m.list.MoveToFront(elem)
		return nil
	}
	for m.list.Len() >= m.maxSize {
		m.remove(m.list.Back())
	}
	m.items[key] = m.list.PushFront(&memoryEntry{key: key, entry: e, expiresAt: expiresAt})
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Len()
}

func (m *Memory) Stats() Stats { return m.stats() }

func (m *Memory) Close() error { return nil }

func (m *Memory) remove(elem *list.Element) {
	m.list.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry).key)
}
