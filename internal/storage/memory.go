package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. It backs local runs without a
// bucket and the service tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) PutObject(_ context.Context, objectKey, _ string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = append([]byte(nil), body...)
	return nil
}

func (m *MemoryStore) PresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[objectKey]; !ok {
		return "", ErrObjectNotFound
	}
	return "memory://" + objectKey, nil
}

func (m *MemoryStore) DeleteObject(_ context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectKey]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, objectKey)
	return nil
}

// Object returns a stored object.
func (m *MemoryStore) Object(objectKey string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[objectKey]
	return b, ok
}
