package chunking

import (
	"testing"

	"docudive/internal/models"

	"github.com/stretchr/testify/require"
)

func chunk(source string, page int) models.Chunk {
	return models.Chunk{SourcePath: source, PageNumber: page, Text: "t"}
}

func ids(chunks []models.Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.ID)
	}
	return out
}

func TestAssignIDsSequentialWithinPage(t *testing.T) {
	got := AssignIDs([]models.Chunk{chunk("a.pdf", 3), chunk("a.pdf", 3), chunk("a.pdf", 3)})
	require.Equal(t, []string{"a.pdf:3:0", "a.pdf:3:1", "a.pdf:3:2"}, ids(got))
	require.Equal(t, 2, got[2].ChunkIndex)
}

func TestAssignIDsResetsOnPageChange(t *testing.T) {
	got := AssignIDs([]models.Chunk{
		chunk("a.pdf", 3), chunk("a.pdf", 3), chunk("a.pdf", 3), chunk("a.pdf", 3),
		chunk("a.pdf", 4),
	})
	require.Equal(t, "a.pdf:4:0", got[4].ID)
}

func TestAssignIDsResetsOnSourceChangeAndSkippedPages(t *testing.T) {
	got := AssignIDs([]models.Chunk{
		chunk("a.pdf", 0), chunk("a.pdf", 0),
		chunk("a.pdf", 2),
		chunk("b.pdf", 2), chunk("b.pdf", 2),
		chunk("a.pdf", 2),
	})
	require.Equal(t, []string{"a.pdf:0:0", "a.pdf:0:1", "a.pdf:2:0", "b.pdf:2:0", "b.pdf:2:1", "a.pdf:2:0"}, ids(got))
}

func TestAssignIDsIsPositional(t *testing.T) {
	x := models.Chunk{SourcePath: "a.pdf", PageNumber: 1, Text: "x"}
	y := models.Chunk{SourcePath: "a.pdf", PageNumber: 1, Text: "y"}

	forward := AssignIDs([]models.Chunk{x, y})
	swapped := AssignIDs([]models.Chunk{y, x})
	require.Equal(t, "x", forward[0].Text)
	require.Equal(t, "y", swapped[0].Text)
	require.Equal(t, forward[0].ID, swapped[0].ID)
}

func TestAssignIDsEmpty(t *testing.T) {
	require.Empty(t, AssignIDs(nil))
}
