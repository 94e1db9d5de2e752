package models

import "time"

// Page numbers start at 0, matching the order pages appear in the PDF.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

type Document struct {
	SourcePath string `json:"source_path"`
	Pages      []Page `json:"pages"`
}

type Chunk struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	SourcePath string    `json:"source_path"`
	PageNumber int       `json:"page_number"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"-"`
}

// StoreEntry is the durable form of a chunk. Entries are inserted once and
// never updated.
type StoreEntry struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
	SourcePath string    `json:"source_path"`
	PageNumber int       `json:"page_number"`
	ChunkIndex int       `json:"chunk_index"`
}

// ScoredEntry carries the L2 distance to the query vector. Lower is closer.
type ScoredEntry struct {
	Entry StoreEntry `json:"entry"`
	Score float64    `json:"score"`
}

type QueryResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

type StoredFile struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

func EntryFromChunk(c Chunk) StoreEntry {
	return StoreEntry{
		ID:         c.ID,
		Text:       c.Text,
		Embedding:  c.Embedding,
		SourcePath: c.SourcePath,
		PageNumber: c.PageNumber,
		ChunkIndex: c.ChunkIndex,
	}
}

func (e StoreEntry) Chunk() Chunk {
	return Chunk{
		ID:         e.ID,
		Text:       e.Text,
		SourcePath: e.SourcePath,
		PageNumber: e.PageNumber,
		ChunkIndex: e.ChunkIndex,
		Embedding:  e.Embedding,
	}
}
