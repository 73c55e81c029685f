// internal/storage/memory.go
package storage

import (
	"context"
	"strings"
	"sync"
)

const memoryBaseURL = "https://blobs.local"

// MemoryBlobStore is the local-development fallback: bytes live in process
// memory and the issued URLs resolve nowhere outside of it.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func (m *MemoryBlobStore) Upload(ctx context.Context, data []byte, suggestedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UploadError{Name: suggestedName, Err: err}
	}

	key := blobKey(suggestedName)
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[key] = buf
	m.mu.Unlock()

	return memoryBaseURL + "/" + key, nil
}

func (m *MemoryBlobStore) Remove(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, memoryBaseURL+"/")

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns the stored bytes for a previously issued URL.
func (m *MemoryBlobStore) Get(url string) ([]byte, bool) {
	key := strings.TrimPrefix(url, memoryBaseURL+"/")

	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Len reports how many blobs are held.
func (m *MemoryBlobStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
