package documents

import (
	"context"

	"docudive/internal/models"
)

// Static is a fixed batch of documents.
type Static []models.Document

func (s Static) Documents(ctx context.Context) ([]models.Document, error) {
	_ = ctx
	return append([]models.Document(nil), s...), nil
}
