package memory

import (
	"context"
	"testing"

	"docudive/internal/models"
	"docudive/internal/util"
	"docudive/internal/vectorstore"
	"docudive/internal/vectorstore/storetest"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) vectorstore.Store { return New() })
}

func TestMemoryStoreRejectsDimensionChange(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, []models.StoreEntry{{ID: "a", Embedding: []float32{1, 2}}}))
	err := s.Insert(ctx, []models.StoreEntry{{ID: "b", Embedding: []float32{1}}})
	require.ErrorIs(t, err, util.ErrStoreWrite)
}
