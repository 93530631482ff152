package cache

import (
	"sort"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Put stores value under key. Concurrent puts on one key are last write wins.
func (m *MemoryStore) Put(key string, value []byte) {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
}

func (m *MemoryStore) Get(key string, fallback []byte) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, found := m.data[key]
	if !found {
		return fallback
	}

	return value
}

func (m *MemoryStore) KeyExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, found := m.data[key]
	return found
}

func (m *MemoryStore) RemoveKey(key string) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys
}
