package agentscope

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store backed by PostgreSQL: one row per
// session key holding the document as jsonb. It accepts an
// externally-owned *pgxpool.Pool via constructor injection — the
// caller creates and closes the pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pool. Call EnsureSchema
// once before first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the session table if it does not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS agentscope_sessions (
		key  TEXT PRIMARY KEY,
		doc  JSONB NOT NULL
	)`)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, key string, doc SessionDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return NewSessionError(key, "save", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO agentscope_sessions (key, doc) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc`,
		key, raw)
	if err != nil {
		return NewSessionError(key, "save", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) (SessionDocument, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM agentscope_sessions WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		return SessionDocument{}, NewSessionError(key, "load", ErrSessionNotFound)
	}
	var doc SessionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return SessionDocument{}, NewSessionError(key, "load", err)
	}
	return doc, nil
}

func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM agentscope_sessions WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, NewSessionError(key, "exists", err)
	}
	return exists, nil
}
