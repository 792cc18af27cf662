package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the part of *pgxpool.Pool the store uses.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps tokens in the portal_auth_tokens table created by
// database.InitDB.
type PostgresStore struct {
	db querier
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var token string
	err := p.db.QueryRow(ctx,
		`SELECT token FROM portal_auth_tokens WHERE session_key = $1`, key).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return token, err
}

func (p *PostgresStore) Set(ctx context.Context, key, token string) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO portal_auth_tokens (session_key, token, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_key) DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()
	`, key, token)
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM portal_auth_tokens WHERE session_key = $1`, key)
	return err
}
