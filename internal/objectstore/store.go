// Package objectstore holds the uploaded PDFs that later become the ingestion
// batch. Keys are flat file names.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"docudive/internal/models"
	"docudive/internal/util"
)

var ErrNotFound = errors.New("object not found")

type Store interface {
	List(ctx context.Context) ([]models.StoredFile, error)
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// SyncToDir copies every PDF object into dir, replacing same named files,
// and returns the local paths written.
func SyncToDir(ctx context.Context, s Store, dir string) ([]string, error) {
	objects, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: list objects: %w", err)
	}
	if err := util.EnsureDir(dir); err != nil {
		return nil, err
	}
	written := make([]string, 0, len(objects))
	for _, obj := range objects {
		if !util.IsPDF(obj.Key) {
			continue
		}
		dst := util.SafeJoin(dir, obj.Key)
		if err := copyObject(ctx, s, obj.Key, dst); err != nil {
			return written, err
		}
		written = append(written, dst)
	}
	return written, nil
}

func copyObject(ctx context.Context, s Store, key, dst string) error {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("sync: open %s: %w", key, err)
	}
	defer rc.Close()
	if _, err := util.WriteFileAtomic(dst, rc); err != nil {
		return fmt.Errorf("sync: write %s: %w", filepath.Base(dst), err)
	}
	return nil
}

func DeleteAll(ctx context.Context, s Store) (int, error) {
	objects, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all: list objects: %w", err)
	}
	n := 0
	for _, obj := range objects {
		if err := s.Delete(ctx, obj.Key); err != nil {
			return n, fmt.Errorf("delete all: %s: %w", obj.Key, err)
		}
		n++
	}
	return n, nil
}
