package database

import (
	"context"
	"fmt"

	"github.com/HARIOM-JHA01/addmy-partner/config"
	"github.com/HARIOM-JHA01/addmy-partner/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pool is only opened when TOKEN_STORE=postgres; partner data itself lives
// behind the REST backend.
var Pool *pgxpool.Pool

func InitDB(cfg *config.Config) error {
	ctx := context.Background()

	var err error
	Pool, err = pgxpool.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := Pool.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}
	logging.Logger.Info("connected to PostgreSQL", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	if err := createTokensTable(ctx); err != nil {
		return fmt.Errorf("failed to create portal_auth_tokens table: %w", err)
	}
	return nil
}

func CloseDB() {
	if Pool != nil {
		Pool.Close()
		logging.Logger.Info("PostgreSQL connection closed")
	}
}

func createTokensTable(ctx context.Context) error {
	_, err := Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS portal_auth_tokens (
			session_key VARCHAR(128) PRIMARY KEY,
			token TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}

	_, err = Pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_portal_auth_tokens_updated ON portal_auth_tokens(updated_at);`)
	if err != nil {
		return err
	}
	return nil
}

// PurgeStaleTokens removes tokens untouched for longer than the given
// interval, e.g. "30 days".
func PurgeStaleTokens(ctx context.Context, olderThan string) (int64, error) {
	tag, err := Pool.Exec(ctx,
		`DELETE FROM portal_auth_tokens WHERE updated_at < NOW() - $1::interval`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
