// Package postgres stores entries in a pgvector column and lets Postgres
// rank them with the <-> (L2) operator.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// Migrate creates the vector extension and the entries table for dim
// dimensional embeddings.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS chunk_entries (
  seq         BIGSERIAL PRIMARY KEY,
  id          TEXT NOT NULL UNIQUE,
  text        TEXT NOT NULL,
  source_path TEXT NOT NULL DEFAULT '',
  page_number INT  NOT NULL DEFAULT 0,
  chunk_index INT  NOT NULL DEFAULT 0,
  embedding   vector(%d) NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, dim),
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate chunk_entries: %w", err)
		}
	}
	return nil
}
