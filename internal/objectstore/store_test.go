package objectstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutListOpenDelete(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")
	s := NewLocal(root)

	files, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, s.Put(ctx, "b.pdf", strings.NewReader("bbb")))
	require.NoError(t, s.Put(ctx, "../../a.pdf", strings.NewReader("a")))

	files, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Key)
	assert.Equal(t, int64(1), files[0].Size)
	assert.Equal(t, "b.pdf", files[1].Key)

	rc, err := s.Open(ctx, "b.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "bbb", string(body))

	_, err = s.Open(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "b.pdf"))
	require.NoError(t, s.Delete(ctx, "b.pdf"))
	files, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSyncToDirCopiesOnlyPDFs(t *testing.T) {
	ctx := context.Background()
	src := NewLocal(t.TempDir())
	require.NoError(t, src.Put(ctx, "one.pdf", strings.NewReader("1")))
	require.NoError(t, src.Put(ctx, "notes.txt", strings.NewReader("n")))

	dst := filepath.Join(t.TempDir(), "data")
	written, err := SyncToDir(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dst, "one.pdf")}, written)

	_, err = os.Stat(filepath.Join(dst, "notes.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(t.TempDir())
	require.NoError(t, s.Put(ctx, "one.pdf", strings.NewReader("1")))
	require.NoError(t, s.Put(ctx, "two.pdf", strings.NewReader("2")))

	n, err := DeleteAll(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	files, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	now := time.Now()
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: &now,
		})
	}
	return out, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = body
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreWithFakeClient(t *testing.T) {
	ctx := context.Background()
	s := NewS3WithClient(newFakeS3(), "docs")

	require.NoError(t, s.Put(ctx, "z.pdf", strings.NewReader("zz")))
	require.NoError(t, s.Put(ctx, "a.pdf", strings.NewReader("a")))

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Key)
	assert.Equal(t, int64(2), files[1].Size)

	_, err = s.Open(ctx, "nope.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	dst := t.TempDir()
	written, err := SyncToDir(ctx, s, dst)
	require.NoError(t, err)
	assert.Len(t, written, 2)
	body, err := os.ReadFile(filepath.Join(dst, "z.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "zz", string(body))

	n, err := DeleteAll(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
