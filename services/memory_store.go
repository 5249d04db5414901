package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type storedObject struct {
	contentType string
	body        []byte
}

// MemoryStore is an in-process ObjectStore for tests and local runs without a bucket
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]storedObject)}
}

func (m *MemoryStore) PutObject(_ context.Context, key, contentType string, body []byte) error {
	copied := append([]byte(nil), body...)

	m.mu.Lock()
	m.objects[key] = storedObject{contentType: contentType, body: copied}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key string) (string, error) {
	if !m.Has(key) {
		return "", fmt.Errorf("object %s not found", key)
	}
	return "https://objects.lumme.test/" + key + "?signature=memory", nil
}

func (m *MemoryStore) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Has reports whether key is stored
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// ContentType returns the content type key was stored with
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}

// Keys lists the stored keys in order
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
