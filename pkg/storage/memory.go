package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory ObjectStore for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// FailPut, when set, is consulted before every Put; returning a non-nil
	// error aborts the write. Used by tests to simulate storage failures.
	FailPut func(key string) error
}

type memoryObject struct {
	data        []byte
	contentType string
	storedAt    time.Time
}

// NewMemoryStore creates an empty in-memory object store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

// Put stores content under key
func (m *MemoryStore) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	if m.FailPut != nil {
		if err := m.FailPut(key); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, storedAt: time.Now()}
	return nil
}

// Get retrieves the object under key
func (m *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete removes the object under key
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Exists reports whether an object is stored under key
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// Presign returns a fake URL for key
func (m *MemoryStore) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("object not found: %s", key)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int(ttl.Seconds())), nil
}

// List returns all objects with the given prefix, sorted by key
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{Key: key, LastModified: obj.storedAt})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// SetLastModified rewinds the stored timestamp of key. Used by tests that
// need an object to look older than it is.
func (m *MemoryStore) SetLastModified(key string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj, ok := m.objects[key]; ok {
		obj.storedAt = at
		m.objects[key] = obj
	}
}

// Len returns how many objects are stored
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
