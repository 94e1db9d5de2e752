package util

import (
	"strings"
	"unicode"
)

const defaultSnippetRunes = 240

// Snippet flattens extracted PDF text onto one line and cuts it at a word
// boundary no longer than maxRunes.
func Snippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = defaultSnippetRunes
	}
	flat := []rune(flattenPDFText(s))
	if len(flat) <= maxRunes {
		return string(flat)
	}
	return string(flat[:cutAtSpace(flat, maxRunes)]) + "..."
}

// QuerySnippet returns the window of a retrieved chunk that holds the most
// distinct query words. Words shorter than four runes are ignored. With no
// match it falls back to the chunk head.
func QuerySnippet(text, query string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = defaultSnippetRunes
	}
	flat := []rune(flattenPDFText(text))
	if len(flat) <= maxRunes {
		return string(flat)
	}
	words := queryWords(query)
	if len(words) == 0 {
		return Snippet(text, maxRunes)
	}

	lower := []rune(strings.ToLower(string(flat)))
	type hit struct{ pos, word int }
	var hits []hit
	for wi, w := range words {
		for _, p := range indexAllRunes(lower, w) {
			hits = append(hits, hit{pos: p, word: wi})
		}
	}
	if len(hits) == 0 {
		return Snippet(text, maxRunes)
	}

	best, bestScore := -1, 0
	for _, h := range hits {
		seen := make(map[int]struct{}, len(words))
		for _, o := range hits {
			if o.pos >= h.pos && o.pos+len([]rune(words[o.word])) <= h.pos+maxRunes {
				seen[o.word] = struct{}{}
			}
		}
		if len(seen) > bestScore || (len(seen) == bestScore && h.pos < best) {
			best, bestScore = h.pos, len(seen)
		}
	}

	start := wordStart(flat, best)
	end := start + maxRunes
	if end >= len(flat) {
		end = len(flat)
	} else {
		end = start + cutAtSpace(flat[start:], maxRunes)
	}
	out := strings.TrimSpace(string(flat[start:end]))
	if start > 0 {
		out = "..." + out
	}
	if end < len(flat) {
		out += "..."
	}
	return out
}

// flattenPDFText joins words hyphenated across line breaks, drops control
// runes and collapses whitespace.
func flattenPDFText(s string) string {
	s = SanitizeText(s)
	var b strings.Builder
	b.Grow(len(s))
	in := []rune(s)
	for i := 0; i < len(in); i++ {
		r := in[i]
		if r == '-' && i > 0 && unicode.IsLetter(in[i-1]) {
			j := i + 1
			for j < len(in) && (in[j] == ' ' || in[j] == '\t' || in[j] == '\r') {
				j++
			}
			if j < len(in) && in[j] == '\n' {
				k := j + 1
				for k < len(in) && unicode.IsSpace(in[k]) {
					k++
				}
				if k < len(in) && unicode.IsLower(in[k]) {
					i = k - 1
					continue
				}
			}
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func queryWords(q string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, f := range strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len([]rune(f)) < 4 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func indexAllRunes(hay []rune, needle string) []int {
	n := []rune(needle)
	var out []int
	for i := 0; i+len(n) <= len(hay); i++ {
		if string(hay[i:i+len(n)]) == needle {
			out = append(out, i)
		}
	}
	return out
}

// cutAtSpace returns the largest cut <= limit that ends before a space, or
// limit when the first limit runes hold no space.
func cutAtSpace(r []rune, limit int) int {
	if limit >= len(r) {
		return len(r)
	}
	for i := limit; i > 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return limit
}

func wordStart(r []rune, pos int) int {
	for pos > 0 && r[pos-1] != ' ' {
		pos--
	}
	return pos
}
