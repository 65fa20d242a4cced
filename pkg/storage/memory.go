package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStorage keeps documents in a map. It is meant for tests; setting
// ReadErr or WriteErr makes the matching call fail.
type MemoryStorage struct {
	mu       sync.Mutex
	docs     map[string][]byte
	ReadErr  error
	WriteErr error
	Writes   int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string][]byte)}
}

func (s *MemoryStorage) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	data, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStorage) Write(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.docs[key] = append([]byte(nil), data...)
	s.Writes++
	return nil
}

// Keys returns the stored keys in no particular order.
func (s *MemoryStorage) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	return keys
}
