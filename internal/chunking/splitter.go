package chunking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docudive/internal/models"
	"docudive/internal/util"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 80
)

// DefaultSeparators are tried in order; the empty separator splits between
// runes and always succeeds.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts page text into windows of at most size runes, preferring
// paragraph, then line, then word boundaries. Consecutive windows on a page
// carry up to overlap runes of the previous window.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, util.WrapOp("new splitter", util.ErrConfiguration, fmt.Errorf("chunk size must be positive, got %d", size))
	}
	if overlap < 0 {
		return nil, util.WrapOp("new splitter", util.ErrConfiguration, fmt.Errorf("chunk overlap must not be negative, got %d", overlap))
	}
	if overlap >= size {
		return nil, util.WrapOp("new splitter", util.ErrConfiguration, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size))
	}
	return &Splitter{size: size, overlap: overlap, separators: DefaultSeparators}, nil
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunks of every page of doc in page order. Ids are not
// assigned here; see AssignIDs.
func (s *Splitter) Split(doc models.Document) []models.Chunk {
	out := make([]models.Chunk, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		for _, text := range s.SplitText(page.Text) {
			out = append(out, models.Chunk{
				Text:       text,
				SourcePath: doc.SourcePath,
				PageNumber: page.Number,
			})
		}
	}
	return out
}

func (s *Splitter) SplitDocuments(docs []models.Document) []models.Chunk {
	out := make([]models.Chunk, 0)
	for _, d := range docs {
		out = append(out, s.Split(d)...)
	}
	return out
}

func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = candidate
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var out, pending []string
	for _, piece := range splitOn(text, sep) {
		if runeLen(piece) < s.size {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			out = append(out, s.merge(pending)...)
			pending = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
			continue
		}
		out = append(out, s.split(piece, rest)...)
	}
	if len(pending) > 0 {
		out = append(out, s.merge(pending)...)
	}
	return out
}

// merge greedily packs pieces into windows no longer than size. When a
// window is emitted, pieces are dropped from its front until what remains
// fits within overlap, and that remainder starts the next window. Pieces
// already carry their leading separator, so they are joined as is.
func (s *Splitter) merge(pieces []string) []string {
	var out, window []string
	total := 0
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.size && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, "")); doc != "" {
				out = append(out, doc)
			}
			for total > s.overlap || (total+n > s.size && total > 0) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(window, "")); doc != "" {
		out = append(out, doc)
	}
	return out
}

// splitOn cuts text at sep and keeps sep at the front of every piece after
// the first, so joining the pieces restores text exactly. The empty
// separator yields single runes.
func splitOn(text, sep string) []string {
	var parts []string
	if sep == "" {
		parts = make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for i, p := range strings.Split(text, sep) {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
