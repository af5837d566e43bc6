package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryObjectStorage keeps objects in process memory.
// It backs local development without a bucket and the application tests;
// presigned URLs point at BaseURL and are not served by anything.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "http://localhost:9000/compia",
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryObjectStorage) presign(key, method string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrKeyRequired
	}
	expiresAt := time.Now().Add(defaultPresignTTL)
	q := url.Values{"method": {method}, "expires": {expiresAt.UTC().Format(time.RFC3339)}}
	return m.BaseURL + "/" + key + "?" + q.Encode(), expiresAt, nil
}

// PresignUpload returns a fake upload URL
func (m *MemoryObjectStorage) PresignUpload(_ context.Context, key, _ string) (string, time.Time, error) {
	return m.presign(key, "PUT")
}

// PresignDownload returns a fake download URL
func (m *MemoryObjectStorage) PresignDownload(_ context.Context, key string) (string, time.Time, error) {
	return m.presign(key, "GET")
}

// Put stores a copy of data
func (m *MemoryObjectStorage) Put(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// Get returns a copy of the stored bytes
func (m *MemoryObjectStorage) Get(_ context.Context, key string, maxBytes int64) ([]byte, string, error) {
	if key == "" {
		return nil, "", ErrKeyRequired
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	if maxBytes > 0 && int64(len(obj.data)) > maxBytes {
		return nil, "", fmt.Errorf("object %s exceeds %d bytes", key, maxBytes)
	}
	return append([]byte(nil), obj.data...), obj.contentType, nil
}

// Delete removes the object if present
func (m *MemoryObjectStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Exists reports whether key was stored
func (m *MemoryObjectStorage) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrKeyRequired
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}
