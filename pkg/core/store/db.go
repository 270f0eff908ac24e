package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the tables used by this package. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS export_log (
	id          TEXT PRIMARY KEY,
	ticker      TEXT NOT NULL,
	url         TEXT NOT NULL,
	path        TEXT NOT NULL,
	category    TEXT NOT NULL,
	report_name TEXT NOT NULL DEFAULT '',
	filing_date TEXT NOT NULL DEFAULT '',
	form        TEXT NOT NULL DEFAULT '',
	table_count INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS export_log_ticker_created_idx ON export_log (ticker, created_at DESC);
`

// Connect opens a connection pool for dbURL and makes sure the schema exists.
func Connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL not set")
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return pool, nil
}
