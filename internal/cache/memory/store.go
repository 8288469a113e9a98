// Package memory keeps cached pages in-memory for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/trivia-archive/internal/cache"
)

// Store holds cached pages in a map.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes int
}

// New creates an empty in-memory cache.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Exists reports whether key is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

// Read returns a copy of the content stored under key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	if err := cache.ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("cache entry %q not found", key)
	}
	return append([]byte(nil), data...), nil
}

// Write stores a copy of content under key.
func (s *Store) Write(_ context.Context, key string, content []byte) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), content...)
	s.writes++
	return nil
}

// Writes returns how many Write calls succeeded.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
