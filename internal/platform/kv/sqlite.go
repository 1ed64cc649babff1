package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "fieldcap/internal/platform/errors"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection serializes writers and avoids SQLITE_BUSY between pooled conns
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  version INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, error) {
	var value string
	var version int64
	err := s.db.QueryRowContext(ctx, `SELECT value, version FROM kv WHERE key = ?`, key).Scan(&value, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, apperrors.ErrNotFound
		}
		return Entry{}, fmt.Errorf("kv get %s: %w", key, err)
	}
	return Entry{Value: []byte(value), Version: version}, nil
}

func (s *SQLiteStore) CompareAndSwap(ctx context.Context, key string, expected int64, value []byte) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var (
		res sql.Result
		err error
	)
	if expected == 0 {
		res, err = s.db.ExecContext(ctx, `
INSERT INTO kv (key, value, version, updated_at) VALUES (?, ?, 1, ?)
ON CONFLICT(key) DO NOTHING;
`, key, string(value), now)
	} else {
		res, err = s.db.ExecContext(ctx, `
UPDATE kv SET value = ?, version = version + 1, updated_at = ?
WHERE key = ? AND version = ?;
`, string(value), now, key, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("kv put %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("kv put %s: %w", key, err)
	}
	if affected == 0 {
		return 0, apperrors.ErrVersionConflict
	}
	return expected + 1, nil
}

func (s *SQLiteStore) CompareAndDelete(ctx context.Context, key string, expected int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ? AND version = ?`, key, expected)
	if err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	if affected == 0 {
		return apperrors.ErrVersionConflict
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
