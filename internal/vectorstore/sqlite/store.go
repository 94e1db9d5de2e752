// Package sqlite persists entries in a single SQLite file inside the store
// directory. Distances are computed in process over all stored vectors.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"docudive/internal/models"
	"docudive/internal/util"
	"docudive/internal/vectorstore"

	_ "modernc.org/sqlite"
)

const FileName = "docudive.sqlite3"

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

var _ vectorstore.Store = (*Store)(nil)

// Open creates dir if needed, so a missing store directory behaves as an
// empty store.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	path := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM entries`)
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return util.WrapOp("insert: begin tx", util.ErrStoreWrite, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var storedDim sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT dim FROM entries LIMIT 1`).Scan(&storedDim); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return util.WrapOp("insert: read dimension", util.ErrStoreWrite, err)
	}
	if storedDim.Valid && int(storedDim.Int64) != len(entries[0].Embedding) {
		return util.WrapOp("insert", util.ErrStoreWrite, fmt.Errorf("store dimension is %d, batch has %d", storedDim.Int64, len(entries[0].Embedding)))
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO entries (id, text, source_path, page_number, chunk_index, dim, embedding)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return util.WrapOp("insert: prepare", util.ErrStoreWrite, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Text, e.SourcePath, e.PageNumber, e.ChunkIndex, len(e.Embedding), encodeVector(e.Embedding)); err != nil {
			return util.WrapOp("insert "+e.ID, util.ErrStoreWrite, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return util.WrapOp("insert: commit", util.ErrStoreWrite, err)
	}
	return nil
}

func (s *Store) SimilaritySearch(ctx context.Context, query []float32, k int) ([]models.ScoredEntry, error) {
	entries, err := s.scan(ctx, `
SELECT id, text, source_path, page_number, chunk_index, embedding
FROM entries
ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return vectorstore.RankByDistance(query, entries, k)
}

func (s *Store) ClearAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, util.WrapOp("clear all", util.ErrStoreWrite, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, util.WrapOp("clear all", util.ErrStoreWrite, err)
	}
	return int(n), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (s *Store) Peek(ctx context.Context, n int) ([]models.StoreEntry, error) {
	if n < 0 {
		n = -1
	}
	entries, err := s.scan(ctx, `
SELECT id, text, source_path, page_number, chunk_index, embedding
FROM entries
ORDER BY seq ASC
LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("peek entries: %w", err)
	}
	return entries, nil
}

func (s *Store) scan(ctx context.Context, query string, args ...any) ([]models.StoreEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.StoreEntry, 0, 64)
	for rows.Next() {
		var e models.StoreEntry
		var blob []byte
		if err := rows.Scan(&e.ID, &e.Text, &e.SourcePath, &e.PageNumber, &e.ChunkIndex, &blob); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Embedding = decodeVector(blob)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
