// Package rag answers questions from the vector store: retrieve, assemble a
// prompt, generate, cite.
package rag

import (
	"context"
	"fmt"

	"docudive/internal/models"
	"docudive/internal/providers"
	"docudive/internal/vectorstore"
)

const DefaultTopK = 5

type Retriever struct {
	embedder providers.EmbeddingProvider
	store    vectorstore.Store
}

func NewRetriever(embedder providers.EmbeddingProvider, store vectorstore.Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns up to k results, closest first. k <= 0 means DefaultTopK.
// An empty store yields an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.QueryResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	vectors, _, err := r.embedder.Embed(ctx, providers.EmbedRequest{Operation: "query", Inputs: []string{query}})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vectors))
	}
	scored, err := r.store.SimilaritySearch(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	out := make([]models.QueryResult, 0, len(scored))
	for _, s := range scored {
		c := s.Entry.Chunk()
		c.Embedding = nil
		out = append(out, models.QueryResult{Chunk: c, Score: s.Score})
	}
	return out, nil
}
