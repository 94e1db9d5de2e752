package util

import "strings"

// SanitizeText removes NUL bytes and control characters that some PDF
// extractors emit and that text columns reject. Newlines and tabs survive
// because the splitter keys on them.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f || ch == '�' {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
