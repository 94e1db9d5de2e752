package util

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// HashReader computes the sha256 of everything read through it.
type HashReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func NewHashReader(r io.Reader) *HashReader {
	return &HashReader{r: r, h: sha256.New()}
}

func (h *HashReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n > 0 {
		_, _ = h.h.Write(p[:n])
		h.n += int64(n)
	}
	return n, err
}

func (h *HashReader) SumHex() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

func (h *HashReader) Size() int64 {
	return h.n
}
