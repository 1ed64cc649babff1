package kv

import (
	"context"
	"sync"

	apperrors "fieldcap/internal/platform/errors"
)

// MemoryStore keeps everything in process. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, apperrors.ErrNotFound
	}
	return Entry{Value: append([]byte(nil), entry.Value...), Version: entry.Version}, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, key string, expected int64, value []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.entries[key]
	if current.Version != expected {
		return 0, apperrors.ErrVersionConflict
	}
	next := Entry{Value: append([]byte(nil), value...), Version: expected + 1}
	s.entries[key] = next
	return next.Version, nil
}

func (s *MemoryStore) CompareAndDelete(_ context.Context, key string, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries[key]
	if !ok || current.Version != expected {
		return apperrors.ErrVersionConflict
	}
	delete(s.entries, key)
	return nil
}

// Put overwrites key with a raw value, bypassing versioning. Tests use it to seed malformed state.
func (s *MemoryStore) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.entries[key]
	s.entries[key] = Entry{Value: append([]byte(nil), value...), Version: current.Version + 1}
}

func (s *MemoryStore) Close() error { return nil }
