package vectorstore

import (
	"fmt"
	"math"
	"sort"

	"docudive/internal/models"
	"docudive/internal/util"
)

func L2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: query %d, stored %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// RankByDistance scores entries against query and returns the k closest.
// entries must be in insertion order; the stable sort keeps that order for
// equal distances.
func RankByDistance(query []float32, entries []models.StoreEntry, k int) ([]models.ScoredEntry, error) {
	scored := make([]models.ScoredEntry, 0, len(entries))
	for _, e := range entries {
		d, err := L2Distance(query, e.Embedding)
		if err != nil {
			return nil, util.WrapOp("similarity search "+e.ID, util.ErrInvalidInput, err)
		}
		scored = append(scored, models.ScoredEntry{Entry: e, Score: d})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score < scored[j].Score })
	if k >= 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// ValidateBatch rejects batches a backend must not half apply.
func ValidateBatch(entries []models.StoreEntry) error {
	seen := make(map[string]struct{}, len(entries))
	dim := -1
	for _, e := range entries {
		if e.ID == "" {
			return util.WrapOp("insert", util.ErrStoreWrite, fmt.Errorf("entry without id"))
		}
		if _, dup := seen[e.ID]; dup {
			return util.WrapOp("insert", util.ErrStoreWrite, fmt.Errorf("duplicate id %q in batch", e.ID))
		}
		seen[e.ID] = struct{}{}
		if len(e.Embedding) == 0 {
			return util.WrapOp("insert", util.ErrStoreWrite, fmt.Errorf("entry %q has no embedding", e.ID))
		}
		if dim >= 0 && len(e.Embedding) != dim {
			return util.WrapOp("insert", util.ErrStoreWrite, fmt.Errorf("entry %q has dimension %d, batch has %d", e.ID, len(e.Embedding), dim))
		}
		dim = len(e.Embedding)
	}
	return nil
}
