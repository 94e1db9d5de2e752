package postgres

import (
	"context"
	"fmt"

	"docudive/internal/models"
	"docudive/internal/util"
	"docudive/internal/vectorstore"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Queryer is satisfied by *pgxpool.Pool and pgx.Tx.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	pool *pgxpool.Pool
	q    Queryer
}

var _ vectorstore.Store = (*Store)(nil)

func Open(ctx context.Context, dsn string, dim int) (*Store, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool, dim); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, q: pool}, nil
}

func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.q.Query(ctx, `SELECT id FROM chunk_entries`)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()
	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, entries []models.StoreEntry) error {
	if err := vectorstore.ValidateBatch(entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return util.WrapOp("insert: begin tx", util.ErrStoreWrite, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
INSERT INTO chunk_entries (id, text, source_path, page_number, chunk_index, embedding)
VALUES ($1, $2, $3, $4, $5, $6::vector)
ON CONFLICT (id) DO NOTHING`,
			e.ID, util.SanitizeText(e.Text), e.SourcePath, e.PageNumber, e.ChunkIndex, VectorLiteral(e.Embedding),
		)
		if err != nil {
			return util.WrapOp("insert "+e.ID, util.ErrStoreWrite, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return util.WrapOp("insert: commit", util.ErrStoreWrite, err)
	}
	return nil
}

func (s *Store) SimilaritySearch(ctx context.Context, query []float32, k int) ([]models.ScoredEntry, error) {
	if k < 0 {
		k = 0
	}
	rows, err := s.q.Query(ctx, `
SELECT id, text, source_path, page_number, chunk_index,
       embedding <-> $1::vector AS distance
FROM chunk_entries
ORDER BY distance ASC, seq ASC
LIMIT $2`, VectorLiteral(query), k)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	out := make([]models.ScoredEntry, 0, k)
	for rows.Next() {
		var r models.ScoredEntry
		if err := rows.Scan(&r.Entry.ID, &r.Entry.Text, &r.Entry.SourcePath, &r.Entry.PageNumber, &r.Entry.ChunkIndex, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return out, nil
}

func (s *Store) ClearAll(ctx context.Context) (int, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM chunk_entries`)
	if err != nil {
		return 0, util.WrapOp("clear all", util.ErrStoreWrite, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM chunk_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (s *Store) Peek(ctx context.Context, n int) ([]models.StoreEntry, error) {
	if n < 0 {
		n = 1 << 30
	}
	rows, err := s.q.Query(ctx, `
SELECT id, text, source_path, page_number, chunk_index
FROM chunk_entries
ORDER BY seq ASC
LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("peek entries: %w", err)
	}
	defer rows.Close()
	out := make([]models.StoreEntry, 0, 8)
	for rows.Next() {
		var e models.StoreEntry
		if err := rows.Scan(&e.ID, &e.Text, &e.SourcePath, &e.PageNumber, &e.ChunkIndex); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// VectorLiteral renders v in pgvector's text form for a $n::vector cast.
func VectorLiteral(v []float32) string {
	return pgvector.NewVector(v).String()
}
