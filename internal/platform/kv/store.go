// Package kv is the local record store: a durable string-keyed map of JSON documents with a
// version token per key. All mutation goes through compare-and-swap so concurrent writers
// cannot silently drop each other's updates.
package kv

import (
	"context"
)

// Entry is a stored document and the version it was read at. Version 0 means absent.
type Entry struct {
	Value   []byte
	Version int64
}

// Store is the backend contract. Get returns apperrors.ErrNotFound for a missing key.
// CompareAndSwap writes value only if the key is currently at expected (0 = must not exist)
// and returns the new version; a mismatch returns apperrors.ErrVersionConflict.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	CompareAndSwap(ctx context.Context, key string, expected int64, value []byte) (int64, error)
	CompareAndDelete(ctx context.Context, key string, expected int64) error
	Close() error
}
