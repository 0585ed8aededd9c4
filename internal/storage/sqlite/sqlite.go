// Package sqlite provides a storage.Backend over a single SQLite database
// file using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/yndnr/persist-securestore/internal/storage"
)

// FileName is the database file created inside a data directory.
const FileName = "securestore.db"

const schema = `
CREATE TABLE IF NOT EXISTS items (
	key   BLOB PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;
`

// Backend stores records in the items table.
type Backend struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	closed atomic.Bool
}

var (
	_ storage.Backend     = (*Backend)(nil)
	_ storage.Snapshotter = (*Backend)(nil)
)

// Open opens (creating parent dirs and schema) the database at path.
func Open(path string, logger *slog.Logger) (*Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	logger.Debug("sqlite backend opened", "path", path)
	return &Backend{db: db, path: path, logger: logger}, nil
}

// OpenDir opens FileName inside dir.
func OpenDir(dir string, logger *slog.Logger) (*Backend, error) {
	return Open(filepath.Join(dir, FileName), logger)
}

// Get retrieves a value by key.
func (b *Backend) Get(ctx context.Context, key []byte) ([]byte, error) {
	if b.closed.Load() {
		return nil, storage.ErrClosed
	}
	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM items WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return value, nil
}

// Set upserts a key-value pair.
func (b *Backend) Set(ctx context.Context, key, value []byte) error {
	if b.closed.Load() {
		return storage.ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO items (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Delete removes a key. Absent keys are ignored.
func (b *Backend) Delete(ctx context.Context, key []byte) error {
	if b.closed.Load() {
		return storage.ErrClosed
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM items WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Scan visits keys with prefix in ascending order.
func (b *Backend) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if b.closed.Load() {
		return storage.ErrClosed
	}
	if prefix == nil {
		prefix = []byte{}
	}
	rows, err := b.db.QueryContext(ctx, `SELECT key, value FROM items WHERE key >= ? ORDER BY key`, prefix)
	if err != nil {
		return fmt.Errorf("sqlite scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("sqlite scan row: %w", err)
		}
		if !bytes.HasPrefix(key, prefix) || !fn(key, value) {
			break
		}
	}
	return rows.Err()
}

// Stats reports the row count and the database size.
func (b *Backend) Stats(ctx context.Context) (*storage.Stats, error) {
	if b.closed.Load() {
		return nil, storage.ErrClosed
	}
	st := &storage.Stats{Kind: storage.KindSQLite}
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&st.TotalKeys); err != nil {
		return nil, fmt.Errorf("sqlite count: %w", err)
	}
	var pages, pageSize uint64
	if err := b.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pages); err != nil {
		return nil, fmt.Errorf("sqlite page_count: %w", err)
	}
	if err := b.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("sqlite page_size: %w", err)
	}
	st.TotalSize = pages * pageSize
	return st, nil
}

// SaveSnapshot writes a compacted copy of the database with VACUUM INTO and
// returns a reader that removes the copy on Close.
func (b *Backend) SaveSnapshot(ctx context.Context) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, storage.ErrClosed
	}
	tmpDir, err := os.MkdirTemp("", "securestore-sqlite-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	snapPath := filepath.Join(tmpDir, "snapshot.db")

	if _, err := b.db.ExecContext(ctx, `VACUUM INTO ?`, snapPath); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("sqlite vacuum into: %w", err)
	}
	f, err := os.Open(snapPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return &tempFileReader{File: f, dir: tmpDir}, nil
}

// LoadSnapshot replaces all rows with those of a database image read from r.
// The image is attached as a second schema; verify reads it inside the same
// transaction that later copies it, so a rejected image is rolled back.
func (b *Backend) LoadSnapshot(ctx context.Context, r io.Reader, verify storage.VerifyFunc) (err error) {
	if b.closed.Load() {
		return storage.ErrClosed
	}
	tmpDir, err := os.MkdirTemp("", "securestore-sqlite-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapPath := filepath.Join(tmpDir, "restore.db")
	f, err := os.Create(snapPath)
	if err != nil {
		return fmt.Errorf("create restore file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write restore file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close restore file: %w", err)
	}

	// ATTACH is per connection, so pin one.
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("sqlite conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS snap`, snapPath); err != nil {
		return fmt.Errorf("sqlite attach: %w", err)
	}
	defer func() {
		if _, derr := conn.ExecContext(context.Background(), `DETACH DATABASE snap`); derr != nil && err == nil {
			err = fmt.Errorf("sqlite detach: %w", derr)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	if verify != nil {
		if err := verify(ctx, snapGetter{tx: tx}); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM main.items`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO main.items (key, value) SELECT key, value FROM snap.items`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}

	b.logger.Info("snapshot restored", "path", b.path)
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

// snapGetter reads the attached snapshot schema within a transaction.
type snapGetter struct {
	tx *sql.Tx
}

func (g snapGetter) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := g.tx.QueryRowContext(ctx, `SELECT value FROM snap.items WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite snapshot get: %w", err)
	}
	return value, nil
}

type tempFileReader struct {
	*os.File
	dir string
}

func (r *tempFileReader) Close() error {
	err1 := r.File.Close()
	err2 := os.RemoveAll(r.dir)
	if err1 != nil {
		return err1
	}
	return err2
}
