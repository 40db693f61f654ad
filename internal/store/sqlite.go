package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cheezgi/piccolo/internal/chunk"
)

// SQLiteStore is the default local cache backend, grounded on the
// teacher's sqlite_open/sqlite_exec/sqlite_prepare native functions in
// internal/vm/vm.go, which wrap database/sql over modernc.org/sqlite
// the same way.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a cache database at path and
// ensures its schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			key        TEXT PRIMARY KEY,
			run_id     TEXT NOT NULL,
			source     TEXT NOT NULL,
			chunk      BLOB NOT NULL,
			created_at TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*chunk.Chunk, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT chunk FROM chunks WHERE key = ?`, key)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: query %q: %w", key, err)
	}
	c, err := decodeChunk(data)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key, source string, c *chunk.Chunk) error {
	data, err := encodeChunk(c)
	if err != nil {
		return err
	}
	rec := newRecord(key, source, data)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (key, run_id, source, chunk, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			run_id = excluded.run_id,
			chunk = excluded.chunk,
			created_at = excluded.created_at`,
		rec.Key, rec.RunID.String(), rec.Source, rec.Chunk, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: insert %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
