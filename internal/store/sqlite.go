package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteAdapter persists key-value pairs in a single SQLite table.
type SQLiteAdapter struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteAdapter opens (creating if needed) the database at path.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteAdapter{db: db}, nil
}

// Close releases the database handle.
func (a *SQLiteAdapter) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	return a.db.Close()
}

func (a *SQLiteAdapter) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if a.closed.Load() {
		return nil, false, ErrAdapterClosed
	}
	var value string
	err := a.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return json.RawMessage(value), true, nil
}

func (a *SQLiteAdapter) Set(ctx context.Context, key string, value json.RawMessage) error {
	if a.closed.Load() {
		return ErrAdapterClosed
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

func (a *SQLiteAdapter) Delete(ctx context.Context, key string) error {
	if a.closed.Load() {
		return ErrAdapterClosed
	}
	if _, err := a.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (a *SQLiteAdapter) Keys(ctx context.Context) ([]string, error) {
	if a.closed.Load() {
		return nil, ErrAdapterClosed
	}
	rows, err := a.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (a *SQLiteAdapter) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	if a.closed.Load() {
		return nil, ErrAdapterClosed
	}
	rows, err := a.db.QueryContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("failed to load: %w", err)
	}
	defer rows.Close()

	data := make(map[string]json.RawMessage)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		data[k] = json.RawMessage(v)
	}
	return data, rows.Err()
}

// Save replaces the table contents in one transaction.
func (a *SQLiteAdapter) Save(ctx context.Context, data map[string]json.RawMessage) error {
	if a.closed.Load() {
		return ErrAdapterClosed
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("failed to clear: %w", err)
	}
	now := time.Now().UTC()
	for k, v := range data {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`, k, string(v), now); err != nil {
			return fmt.Errorf("failed to save %q: %w", k, err)
		}
	}
	return tx.Commit()
}
