package agentscope

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store backed by pure-Go, no-cgo SQLite — the
// embedded, single-process alternative to PostgresStore.
type SQLiteStore struct {
	dbPath string
}

// NewSQLiteStore opens (lazily, per operation) the database file at
// dbPath. Call EnsureSchema once before first use.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	return sql.Open("sqlite", s.dbPath)
}

// EnsureSchema creates the session table if it does not already exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS agentscope_sessions (
		key TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, key string, doc SessionDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return NewSessionError(key, "save", err)
	}
	db, err := s.open()
	if err != nil {
		return NewSessionError(key, "save", err)
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `INSERT INTO agentscope_sessions (key, doc) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc`, key, string(raw))
	if err != nil {
		return NewSessionError(key, "save", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (SessionDocument, error) {
	db, err := s.open()
	if err != nil {
		return SessionDocument{}, NewSessionError(key, "load", err)
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, `SELECT doc FROM agentscope_sessions WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		return SessionDocument{}, NewSessionError(key, "load", ErrSessionNotFound)
	}
	var doc SessionDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return SessionDocument{}, NewSessionError(key, "load", err)
	}
	return doc, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	db, err := s.open()
	if err != nil {
		return false, NewSessionError(key, "exists", err)
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM agentscope_sessions WHERE key = ?)`, key).Scan(&exists)
	if err != nil {
		return false, NewSessionError(key, "exists", err)
	}
	return exists, nil
}
