package rag

import (
	"strings"

	"docudive/internal/models"
)

const SourcesDelimiter = "\n\nSources: "

func SourceIDs(results []models.QueryResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Chunk.ID)
	}
	return ids
}

// FormatResponse appends the ids as a list literal, e.g.
// "answer\n\nSources: ['x:0:0', 'x:0:1']". An empty id renders as None.
func FormatResponse(answer string, ids []string) string {
	var b strings.Builder
	b.WriteString(answer)
	b.WriteString(SourcesDelimiter)
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		if id == "" {
			b.WriteString("None")
			continue
		}
		b.WriteString(quoteID(id))
	}
	b.WriteByte(']')
	return b.String()
}

// quoteID prefers single quotes and switches to double quotes when the id
// contains a single quote and no double quote.
func quoteID(id string) string {
	q := byte('\'')
	if strings.ContainsRune(id, '\'') && !strings.ContainsRune(id, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range id {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
