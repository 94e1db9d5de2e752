// Package storetest holds behaviour every vectorstore backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"

	"docudive/internal/models"
	"docudive/internal/util"
	"docudive/internal/vectorstore"

	"github.com/stretchr/testify/require"
)

func entry(id string, v ...float32) models.StoreEntry {
	return models.StoreEntry{ID: id, Text: "text of " + id, Embedding: v, SourcePath: "data/a.pdf", PageNumber: 0}
}

// Run exercises a fresh, empty store produced by open for each subtest.
// All vectors are two dimensional.
func Run(t *testing.T, open func(t *testing.T) vectorstore.Store) {
	t.Run("EmptyStore", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		ids, err := s.ListIDs(ctx)
		require.NoError(t, err)
		require.Empty(t, ids)
		res, err := s.SimilaritySearch(ctx, []float32{0, 0}, 5)
		require.NoError(t, err)
		require.Empty(t, res)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("OrdersByAscendingDistance", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, []models.StoreEntry{
			entry("a.pdf:0:0", 0.9, 0),
			entry("a.pdf:0:1", 0.1, 0),
			entry("a.pdf:0:2", 0.5, 0),
		}))
		res, err := s.SimilaritySearch(ctx, []float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		require.Equal(t, "a.pdf:0:1", res[0].Entry.ID)
		require.InDelta(t, 0.1, res[0].Score, 1e-5)
		require.Equal(t, "a.pdf:0:2", res[1].Entry.ID)
		require.InDelta(t, 0.5, res[1].Score, 1e-5)
		require.Equal(t, "text of a.pdf:0:1", res[0].Entry.Text)
		require.Equal(t, "data/a.pdf", res[0].Entry.SourcePath)

		all, err := s.SimilaritySearch(ctx, []float32{0, 0}, 50)
		require.NoError(t, err)
		require.Len(t, all, 3)
	})

	t.Run("InsertSkipsExistingIDs", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, []models.StoreEntry{entry("x:0:0", 1, 1)}))
		stale := entry("x:0:0", 2, 2)
		stale.Text = "changed"
		require.NoError(t, s.Insert(ctx, []models.StoreEntry{stale, entry("x:0:1", 3, 3)}))

		ids, err := s.ListIDs(ctx)
		require.NoError(t, err)
		require.Len(t, ids, 2)
		require.Contains(t, ids, "x:0:0")
		require.Contains(t, ids, "x:0:1")

		first, err := s.Peek(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "text of x:0:0", first[0].Text)
	})

	t.Run("InvalidBatchWritesNothing", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		err := s.Insert(ctx, []models.StoreEntry{entry("ok:0:0", 1, 1), {ID: "bad:0:0", Text: "x"}})
		require.ErrorIs(t, err, util.ErrStoreWrite)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("ClearAll", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, []models.StoreEntry{entry("c:0:0", 1, 0), entry("c:0:1", 2, 0)}))
		removed, err := s.ClearAll(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, removed)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("PeekInInsertionOrder", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, []models.StoreEntry{entry("p:0:0", 1, 0), entry("p:0:1", 2, 0), entry("p:1:0", 3, 0)}))
		got, err := s.Peek(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "p:0:0", got[0].ID)
		require.Equal(t, "p:0:1", got[1].ID)
	})

	t.Run("ConcurrentReadersWithWriter", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, []models.StoreEntry{entry("r:0:0", 0, 0)}))

		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.SimilaritySearch(ctx, []float32{0, 0}, 3); err != nil {
					errs <- err
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Insert(ctx, []models.StoreEntry{entry("r:0:1", 1, 0), entry("r:0:2", 2, 0)}); err != nil {
				errs <- err
			}
		}()
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		n, err := s.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})
}
