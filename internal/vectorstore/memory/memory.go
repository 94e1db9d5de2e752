// Package memory is an in-process vector store used by tests and by the
// "memory" backend for throwaway runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"docudive/internal/models"
	"docudive/internal/util"
	"docudive/internal/vectorstore"
)

type Store struct {
	mu      sync.RWMutex
	entries []models.StoreEntry
	index   map[string]int
	dim     int
}

var _ vectorstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{index: map[string]int{}}
}

func (s *Store) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.entries))
	for _, e := range s.entries {
		out[e.ID] = struct{}{}
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, entries []models.StoreEntry) error {
	if err := ctx.Err(); err != nil {
		return util.WrapOp("insert", util.ErrStoreWrite, err)
	}
	if err := vectorstore.ValidateBatch(entries); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(entries) > 0 && s.dim > 0 && len(entries[0].Embedding) != s.dim {
		return util.WrapOp("insert", util.ErrStoreWrite, fmt.Errorf("store dimension is %d, batch has %d", s.dim, len(entries[0].Embedding)))
	}
	for _, e := range entries {
		if _, ok := s.index[e.ID]; ok {
			continue
		}
		e.Embedding = append([]float32(nil), e.Embedding...)
		s.index[e.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	if len(s.entries) > 0 {
		s.dim = len(s.entries[0].Embedding)
	}
	return nil
}

func (s *Store) SimilaritySearch(ctx context.Context, query []float32, k int) ([]models.ScoredEntry, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.RankByDistance(query, s.entries, k)
}

func (s *Store) ClearAll(ctx context.Context) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = nil
	s.index = map[string]int{}
	s.dim = 0
	return n, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *Store) Peek(ctx context.Context, n int) ([]models.StoreEntry, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]models.StoreEntry, n)
	copy(out, s.entries[:n])
	return out, nil
}

func (s *Store) Close() error { return nil }
