// Package vectorstore defines the persistence boundary for chunk
// embeddings. Every backend scores by Euclidean distance, lower is closer,
// and breaks ties by insertion order.
package vectorstore

import (
	"context"

	"docudive/internal/models"
)

// Store must be safe for concurrent readers alongside a single writer.
type Store interface {
	ListIDs(ctx context.Context) (map[string]struct{}, error)
	// Insert persists the whole batch or nothing. Ids already present are
	// left untouched.
	Insert(ctx context.Context, entries []models.StoreEntry) error
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]models.ScoredEntry, error)
	ClearAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
	// Peek returns up to n entries in insertion order.
	Peek(ctx context.Context, n int) ([]models.StoreEntry, error)
	Close() error
}
