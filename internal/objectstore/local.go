package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docudive/internal/models"
	"docudive/internal/util"
)

// Local keeps objects as files in one directory.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) List(ctx context.Context) ([]models.StoredFile, error) {
	_ = ctx
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", l.root, err)
	}
	out := make([]models.StoredFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "tmp-") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		out = append(out, models.StoredFile{Key: e.Name(), Size: info.Size(), LastModified: info.ModTime().UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader) error {
	_ = ctx
	if _, err := util.WriteFileAtomic(util.SafeJoin(l.root, key), r); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	f, err := os.Open(util.SafeJoin(l.root, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	if err := os.Remove(util.SafeJoin(l.root, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Root is exposed so callers can tell when the upload directory and the
// ingestion directory are the same place.
func (l *Local) Root() string {
	abs, err := filepath.Abs(l.root)
	if err != nil {
		return l.root
	}
	return abs
}
