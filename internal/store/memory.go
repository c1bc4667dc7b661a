package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"media-gallery/internal/metrics"
)

// Memory is a process-local Store. Its contents are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, namespace, key string) ([]byte, error) {
	start := time.Now()
	m.mu.RLock()
	v, ok := m.data[namespace][key]
	m.mu.RUnlock()

	metrics.ObserveStoreOperation(BackendMemory, "get", start, nil)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, namespace, key string, value []byte) error {
	start := time.Now()
	m.mu.Lock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	m.mu.Unlock()

	metrics.ObserveStoreOperation(BackendMemory, "set", start, nil)
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	start := time.Now()
	m.mu.Lock()
	delete(m.data[namespace], key)
	m.mu.Unlock()

	metrics.ObserveStoreOperation(BackendMemory, "delete", start, nil)
	return nil
}

func (m *Memory) Keys(_ context.Context, namespace string) ([]string, error) {
	start := time.Now()
	m.mu.RLock()
	keys := make([]string, 0, len(m.data[namespace]))
	for k := range m.data[namespace] {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	metrics.ObserveStoreOperation(BackendMemory, "keys", start, nil)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
