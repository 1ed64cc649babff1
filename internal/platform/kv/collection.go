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

const maxCASAttempts = 8

// Collection is a JSON array stored under one key. Reads never fail: a missing or malformed
// value reads as empty. Writes replace the whole array.
type Collection[T any] struct {
	store  Store
	key    string
	logger hclog.Logger
	mu     sync.Mutex
}

func NewCollection[T any](store Store, key string, logger hclog.Logger) *Collection[T] {
	return &Collection[T]{store: store, key: key, logger: logging.OrDiscard(logger)}
}

func (c *Collection[T]) Key() string { return c.key }

// Read returns the stored items, or an empty slice when the key is absent or unreadable.
func (c *Collection[T]) Read(ctx context.Context) []T {
	items, _ := c.load(ctx)
	return items
}

// Write overwrites the collection.
func (c *Collection[T]) Write(ctx context.Context, items []T) error {
	return c.Mutate(ctx, func([]T) ([]T, error) { return items, nil })
}

// Mutate runs fn against the current items and stores its result. Mutations on one Collection
// are serialized; a concurrent writer elsewhere makes the CAS fail and fn is re-run on fresh state.
func (c *Collection[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		items, version := c.load(ctx)
		next, err := fn(items)
		if err != nil {
			return err
		}
		if next == nil {
			next = []T{}
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c.key, err)
		}
		if _, err := c.store.CompareAndSwap(ctx, c.key, version, payload); err != nil {
			if errors.Is(err, apperrors.ErrVersionConflict) {
				c.logger.Debug("version conflict, retrying", "key", c.key, "attempt", attempt+1)
				continue
			}
			return fmt.Errorf("write %s: %w", c.key, err)
		}
		return nil
	}
	return fmt.Errorf("write %s: %w", c.key, apperrors.ErrVersionConflict)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, int64) {
	entry, err := c.store.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			c.logger.Warn("read failed, treating as empty", "key", c.key, "error", err)
		}
		return []T{}, 0
	}
	items := []T{}
	if len(entry.Value) == 0 {
		return items, entry.Version
	}
	if err := json.Unmarshal(entry.Value, &items); err != nil {
		c.logger.Warn("malformed stored value, treating as empty", "key", c.key, "error", err)
		return []T{}, entry.Version
	}
	if items == nil {
		items = []T{}
	}
	return items, entry.Version
}
