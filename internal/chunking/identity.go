package chunking

import (
	"fmt"

	"docudive/internal/models"
)

// AssignIDs numbers chunks within each (source, page) run and sets
// ID to "source:page:index". It is a single ordered pass: the index resets
// whenever the source or page differs from the previous chunk, so the ids
// depend on position and the input order must be the splitter's order.
func AssignIDs(chunks []models.Chunk) []models.Chunk {
	lastSource, lastPage := "", 0
	index := 0
	for i := range chunks {
		c := &chunks[i]
		if i > 0 && c.SourcePath == lastSource && c.PageNumber == lastPage {
			index++
		} else {
			index = 0
		}
		c.ChunkIndex = index
		c.ID = ChunkID(c.SourcePath, c.PageNumber, index)
		lastSource, lastPage = c.SourcePath, c.PageNumber
	}
	return chunks
}

func ChunkID(source string, page, index int) string {
	return fmt.Sprintf("%s:%d:%d", source, page, index)
}
