package artifact

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps artifacts in memory. Intended for tests and dry runs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Save records the artifact and returns a mem:// URI.
func (s *MemoryStore) Save(_ context.Context, name string, _ string, data []byte) (string, error) {
	if name == "" {
		return "", fmt.Errorf("artifact name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = append([]byte{}, data...)
	return fmt.Sprintf("mem://%s", name), nil
}

// Get returns a stored artifact by name.
func (s *MemoryStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[name]
	return data, ok
}

// Len reports the number of stored artifacts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
