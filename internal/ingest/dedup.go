// Package ingest runs one ingestion batch: load, split, identify, dedup,
// embed, insert.
package ingest

import "docudive/internal/models"

// Deduplicate keeps chunks whose id is not in existing, in input order. An id
// repeated inside the batch is kept once, at its first position.
func Deduplicate(existing map[string]struct{}, chunks []models.Chunk) []models.Chunk {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := existing[c.ID]; ok {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
