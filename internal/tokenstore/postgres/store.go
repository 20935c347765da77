// Package postgres keeps the admin token in a PostgreSQL table so several
// workstations can share one session.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/tokenstore"
)

// PgxPool is the subset of *pgxpool.Pool the store needs.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements tokenstore.Store on the auth_tokens table.
type Store struct {
	pool PgxPool
	key  string
	now  func() time.Time
}

// Open connects to dsn. Run migrate.Up first.
func Open(ctx context.Context, dsn, key string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool, key), nil
}

// New wraps an existing pool. An empty key means tokenstore.DefaultKey.
func New(pool PgxPool, key string) *Store {
	if key == "" {
		key = tokenstore.DefaultKey
	}
	return &Store{pool: pool, key: key, now: time.Now}
}

// Close closes the underlying pool.
func (s *Store) Close() { s.pool.Close() }

// Load selects the token row for the store key.
func (s *Store) Load(ctx context.Context) (tokenstore.Token, error) {
	const q = `SELECT token, expires_at FROM auth_tokens WHERE key=$1`
	var tok tokenstore.Token
	err := s.pool.QueryRow(ctx, q, s.key).Scan(&tok.Value, &tok.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return tokenstore.Token{}, errs.ErrNoToken
	}
	if err != nil {
		return tokenstore.Token{}, err
	}
	if tok.Value == "" || tok.Expired(s.now()) {
		return tokenstore.Token{}, errs.ErrNoToken
	}
	return tok, nil
}

// Save upserts the token row.
func (s *Store) Save(ctx context.Context, tok tokenstore.Token) error {
	const q = `
INSERT INTO auth_tokens (key, token, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key) DO UPDATE
SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = now()`
	_, err := s.pool.Exec(ctx, q, s.key, tok.Value, tok.ExpiresAt)
	return err
}

// Clear deletes the token row. Deleting a missing row is not an error.
func (s *Store) Clear(ctx context.Context) error {
	const q = `DELETE FROM auth_tokens WHERE key=$1`
	_, err := s.pool.Exec(ctx, q, s.key)
	return err
}
