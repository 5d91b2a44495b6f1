// Package indexstore persists index snapshots. Two backends share the same
// contract: an embedded SQLite database and a Redis keyspace.
package indexstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/docdex/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS indexes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    index_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    document_id TEXT NOT NULL,
    content TEXT NOT NULL,
    vector BLOB NOT NULL,
    FOREIGN KEY (index_id) REFERENCES indexes(id) ON DELETE CASCADE,
    UNIQUE (index_id, position)
);

CREATE INDEX IF NOT EXISTS idx_entries_index ON entries(index_id);
`

// SQLite stores index snapshots in an embedded database file.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and runs migrations.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Save replaces the stored snapshot for snap.Name in one transaction, so a
// concurrent Load sees either the previous or the new state.
func (s *SQLite) Save(ctx context.Context, snap domain.IndexSnapshot) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save of index %q: %w", snap.Name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO indexes (name) VALUES (?)", snap.Name); err != nil {
		return fmt.Errorf("upsert index %q: %w", snap.Name, err)
	}

	var indexID int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM indexes WHERE name = ?", snap.Name).Scan(&indexID); err != nil {
		return fmt.Errorf("resolve index %q: %w", snap.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries WHERE index_id = ?", indexID); err != nil {
		return fmt.Errorf("clear entries of index %q: %w", snap.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO entries (index_id, position, document_id, content, vector) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range snap.Entries {
		if _, err := stmt.ExecContext(ctx,
			indexID, i, entry.DocumentID, entry.Content, serializeVector(entry.Vector)); err != nil {
			return fmt.Errorf("insert entry %d of index %q: %w", i, snap.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save of index %q: %w", snap.Name, err)
	}
	return nil
}

// Load returns the stored snapshot, entries in position order.
func (s *SQLite) Load(ctx context.Context, name string) (domain.IndexSnapshot, error) {
	var indexID int64
	err := s.conn.QueryRowContext(ctx,
		"SELECT id FROM indexes WHERE name = ?", name).Scan(&indexID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.IndexSnapshot{}, fmt.Errorf("index %q: %w", name, domain.ErrIndexNotFound)
	}
	if err != nil {
		return domain.IndexSnapshot{}, fmt.Errorf("resolve index %q: %w", name, err)
	}

	rows, err := s.conn.QueryContext(ctx,
		"SELECT document_id, content, vector FROM entries WHERE index_id = ? ORDER BY position",
		indexID)
	if err != nil {
		return domain.IndexSnapshot{}, fmt.Errorf("query entries of index %q: %w", name, err)
	}
	defer rows.Close()

	snap := domain.IndexSnapshot{Name: name}
	for rows.Next() {
		var docID, content string
		var blob []byte
		if err := rows.Scan(&docID, &content, &blob); err != nil {
			return domain.IndexSnapshot{}, fmt.Errorf("scan entry of index %q: %w", name, err)
		}
		snap.Entries = append(snap.Entries, domain.IndexEntry{
			DocumentID: docID,
			Content:    content,
			Vector:     deserializeVector(blob),
		})
	}
	if err := rows.Err(); err != nil {
		return domain.IndexSnapshot{}, fmt.Errorf("iterate entries of index %q: %w", name, err)
	}
	return snap, nil
}

// List returns every stored index name in lexical order.
func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT name FROM indexes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan index name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index names: %w", err)
	}
	return names, nil
}
