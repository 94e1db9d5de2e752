package util

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func WriteJSONAtomic(path string, v any) error {
	return writeAtomic(path, "tmp-*.json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	})
}

func WriteJSONLinesAtomic[T any](path string, rows []T) error {
	return writeAtomic(path, "tmp-*.jsonl", func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for _, row := range rows {
			b, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("marshal row: %w", err)
			}
			if _, err := bw.Write(append(b, '\n')); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flush jsonl: %w", err)
		}
		return nil
	})
}

func WriteTextAtomic(path string, content string) error {
	return writeAtomic(path, "tmp-*.txt", func(w io.Writer) error {
		if _, err := io.WriteString(w, content); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
		return nil
	})
}

// WriteFileAtomic streams r into path through a temp file in the same
// directory, so readers never observe a partial file.
func WriteFileAtomic(path string, r io.Reader) (int64, error) {
	var n int64
	err := writeAtomic(path, "tmp-*"+filepath.Ext(path), func(w io.Writer) error {
		var err error
		n, err = io.Copy(w, r)
		if err != nil {
			return fmt.Errorf("copy file: %w", err)
		}
		return nil
	})
	return n, err
}

func writeAtomic(path, pattern string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp %s: %w", filepath.Base(path), err)
	}
	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename temp %s: %w", filepath.Base(path), err)
	}
	return nil
}
