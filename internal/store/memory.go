package store

import (
	"sort"
	"strings"
	"sync"
)

// Memory keeps both partitions in process memory. It is the default store
// for embedded use and for tests. Durable keys live only as long as the
// process; hosts that need real durability use SQLite or their own adapter.
type Memory struct {
	mu   sync.RWMutex
	data [2]map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: [2]map[string]string{
			Session: make(map[string]string),
			Durable: make(map[string]string),
		},
	}
}

// Get implements Store.
func (m *Memory) Get(p Partition, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[p][key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(p Partition, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p][key] = value
	return nil
}

// Remove implements Store.
func (m *Memory) Remove(p Partition, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[p], key)
	return nil
}

// Keys implements Store. Results are sorted for deterministic iteration.
func (m *Memory) Keys(p Partition, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data[p]))
	for k := range m.data[p] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements Store. The session partition is dropped; durable keys are
// kept so a Memory store can model a new visit by being reopened.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[Session] = make(map[string]string)
	return nil
}
