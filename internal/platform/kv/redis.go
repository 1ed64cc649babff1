package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "fieldcap/internal/platform/errors"
)

const (
	fieldValue   = "value"
	fieldVersion = "version"
)

// RedisStore keeps each key as a hash {value, version}; CAS uses WATCH/MULTI.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr string, db int, prefix string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &RedisStore{client: client, prefix: prefix}
}

// Ping verifies connectivity before the store is handed to callers.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	values, err := s.client.HMGet(ctx, s.prefix+key, fieldValue, fieldVersion).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("kv get %s: %w", key, err)
	}
	if len(values) != 2 || values[0] == nil {
		return Entry{}, apperrors.ErrNotFound
	}
	value, _ := values[0].(string)
	rawVersion, _ := values[1].(string)
	version, err := strconv.ParseInt(rawVersion, 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("kv get %s: bad version %q", key, rawVersion)
	}
	return Entry{Value: []byte(value), Version: version}, nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, expected int64, value []byte) (int64, error) {
	full := s.prefix + key
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := currentVersion(ctx, tx, full)
		if err != nil {
			return err
		}
		if current != expected {
			return apperrors.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, full, fieldValue, string(value), fieldVersion, expected+1)
			return nil
		})
		return err
	}, full)
	if err != nil {
		return 0, casError(key, err)
	}
	return expected + 1, nil
}

func (s *RedisStore) CompareAndDelete(ctx context.Context, key string, expected int64) error {
	full := s.prefix + key
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := currentVersion(ctx, tx, full)
		if err != nil {
			return err
		}
		if current == 0 || current != expected {
			return apperrors.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, full)
			return nil
		})
		return err
	}, full)
	if err != nil {
		return casError(key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func currentVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	raw, err := tx.HGet(ctx, key, fieldVersion).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func casError(key string, err error) error {
	if errors.Is(err, apperrors.ErrVersionConflict) || errors.Is(err, redis.TxFailedErr) {
		return apperrors.ErrVersionConflict
	}
	return fmt.Errorf("kv cas %s: %w", key, err)
}
