package storage

import (
	"context"
	"strings"
	"sync"
)

// Memory is a map-backed ObjectStore for tests and throwaway runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ks := make([]string, 0, len(m.entries))
	for k := range m.entries {
		// The empty prefix matches every key.
		if strings.HasPrefix(k, prefix) {
			ks = append(ks, k)
		}
	}
	return ks, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return body, nil
}

func (m *Memory) Put(_ context.Context, key, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = body
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok, nil
}

func (m *Memory) Close() error { return nil }

var _ ObjectStore = (*Memory)(nil)
