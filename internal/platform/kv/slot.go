package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/platform/logging"
)

// Slot is a single JSON object stored under one key.
type Slot[T any] struct {
	store  Store
	key    string
	logger hclog.Logger
	mu     sync.Mutex
}

func NewSlot[T any](store Store, key string, logger hclog.Logger) *Slot[T] {
	return &Slot[T]{store: store, key: key, logger: logging.OrDiscard(logger)}
}

// Load returns the current value without clearing it. ok is false when the slot is empty or unreadable.
func (s *Slot[T]) Load(ctx context.Context) (T, bool) {
	value, _, ok := s.load(ctx)
	return value, ok
}

// Save overwrites the slot unconditionally. replaced reports whether a readable value was overwritten.
func (s *Slot[T]) Save(ctx context.Context, value T) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", s.key, err)
	}
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		_, version, had := s.load(ctx)
		if _, err := s.store.CompareAndSwap(ctx, s.key, version, payload); err != nil {
			if errors.Is(err, apperrors.ErrVersionConflict) {
				continue
			}
			return false, fmt.Errorf("write %s: %w", s.key, err)
		}
		return had, nil
	}
	return false, fmt.Errorf("write %s: %w", s.key, apperrors.ErrVersionConflict)
}

// Take returns the current value and clears the slot in one compare-and-delete, so two
// readers can never both receive the same value.
func (s *Slot[T]) Take(ctx context.Context) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		entry, err := s.store.Get(ctx, s.key)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return zero, false, nil
			}
			return zero, false, fmt.Errorf("read %s: %w", s.key, err)
		}
		if err := s.store.CompareAndDelete(ctx, s.key, entry.Version); err != nil {
			if errors.Is(err, apperrors.ErrVersionConflict) {
				continue
			}
			return zero, false, fmt.Errorf("clear %s: %w", s.key, err)
		}
		value, ok := s.decode(entry.Value)
		return value, ok, nil
	}
	return zero, false, fmt.Errorf("clear %s: %w", s.key, apperrors.ErrVersionConflict)
}

func (s *Slot[T]) load(ctx context.Context) (T, int64, bool) {
	var zero T
	entry, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("read failed, treating as empty", "key", s.key, "error", err)
		}
		return zero, 0, false
	}
	value, ok := s.decode(entry.Value)
	return value, entry.Version, ok
}

func (s *Slot[T]) decode(raw []byte) (T, bool) {
	var value T
	if len(raw) == 0 {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn("malformed stored value, treating as empty", "key", s.key, "error", err)
		var zero T
		return zero, false
	}
	return value, true
}
