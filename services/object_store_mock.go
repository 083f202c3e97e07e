package services

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockObjectStore is an in-memory ObjectStore for testing
type MockObjectStore struct {
	objects map[string][]byte // map of object key to content
	mu      sync.RWMutex
	// FailUploads makes PutObject return an error
	FailUploads bool
}

// NewMockObjectStore creates a new mock object store
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		objects: make(map[string][]byte),
	}
}

// PutObject stores the content in memory
func (m *MockObjectStore) PutObject(_ context.Context, key, _ string, body io.Reader) error {
	if m.FailUploads {
		return fmt.Errorf("mock upload failure")
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = content
	m.mu.Unlock()
	return nil
}

// ObjectURL returns a fake presigned URL for a stored object
func (m *MockObjectStore) ObjectURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.objects[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("object not found in mock store: %s", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.eu-central-1.amazonaws.com/%s?mock=true", key), nil
}

// DeleteObject removes an object from memory
func (m *MockObjectStore) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Objects returns a copy of all stored objects (for testing assertions)
func (m *MockObjectStore) Objects() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		objects[k] = v
	}
	return objects
}

// Exists checks if an object is stored
func (m *MockObjectStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[key]
	return exists
}
