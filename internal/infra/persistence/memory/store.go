// Package memory provides an in-memory key-value store used for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"gardenplanner/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.KeyValueStore = (*Store)(nil)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memory store closed")

// Store keeps every key's payload in process memory. Values are copied on the
// way in and out so callers cannot mutate stored snapshots.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// NewStoreWithData returns a store seeded with raw payloads, typically to
// simulate previously saved state in tests.
func NewStoreWithData(seed map[string]string) *Store {
	s := NewStore()
	for k, v := range seed {
		s.data[k] = []byte(v)
	}
	return s
}

// Get returns a copy of the payload stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

// Set replaces the payload stored under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[key] = cloneBytes(value)
	return nil
}

// Delete removes key, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

// Keys lists stored keys sorted ascending.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Close marks the store closed; later calls fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cloneBytes(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
