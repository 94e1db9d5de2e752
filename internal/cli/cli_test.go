package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docudive/internal/ingest"
	"docudive/internal/models"
	"docudive/internal/rag"
	"docudive/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	opts    service.IngestOptions
	report  ingest.Report
	status  service.StoreStatus
	closed   bool
	queried  string
	queryErr error
}

func (f *fakeRunner) Ingest(_ context.Context, opts service.IngestOptions) (service.IngestResult, error) {
	f.opts = opts
	return service.IngestResult{Report: f.report, Cleared: 3}, nil
}

func (f *fakeRunner) Clear(context.Context) (service.ClearResult, error) {
	return service.ClearResult{Entries: 10, Objects: 2}, nil
}

func (f *fakeRunner) Query(_ context.Context, q string) (rag.Answer, error) {
	f.queried = q
	if f.queryErr != nil {
		return rag.Answer{}, f.queryErr
	}
	return rag.Answer{Response: "yes\n\nSources: ['a:0:0']", Sources: []string{"a:0:0"}}, nil
}

func (f *fakeRunner) Inspect(context.Context, int) (service.StoreStatus, error) {
	return f.status, nil
}

func (f *fakeRunner) ListFiles(context.Context) ([]models.StoredFile, error) { return nil, nil }

func (f *fakeRunner) Close() error {
	f.closed = true
	return nil
}

func run(t *testing.T, f *fakeRunner, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(func(context.Context) (Runner, error) { return f, nil })
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestIngestCmdReportsNothingNew(t *testing.T) {
	f := &fakeRunner{report: ingest.Report{Existing: 12}}
	out, err := run(t, f, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Number of existing documents in DB: 12")
	assert.Contains(t, out, "No new documents to add")
	assert.True(t, f.closed)
}

func TestIngestCmdResetFlag(t *testing.T) {
	f := &fakeRunner{report: ingest.Report{Added: 4, RunID: "r1"}}
	out, err := run(t, f, "ingest", "--reset")
	require.NoError(t, err)
	assert.True(t, f.opts.Reset)
	assert.False(t, f.opts.Sync)
	assert.Contains(t, out, "Cleared 3 entries")
	assert.Contains(t, out, "Adding new documents: 4")
}

func TestQueryCmdRequiresExactlyOneArg(t *testing.T) {
	_, err := run(t, &fakeRunner{}, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmdPrintsAndWritesResponse(t *testing.T) {
	f := &fakeRunner{}
	path := filepath.Join(t.TempDir(), "answer.txt")
	out, err := run(t, f, "query", "is it?", "--out", path)
	require.NoError(t, err)
	assert.Equal(t, "is it?", f.queried)
	assert.Contains(t, out, "Sources: ['a:0:0']")

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "yes\n\nSources: ['a:0:0']\n", string(written))
}

func TestCheckCmdEmptyStore(t *testing.T) {
	out, err := run(t, &fakeRunner{}, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "The store is empty.")
}

func TestCheckCmdListsSample(t *testing.T) {
	f := &fakeRunner{status: service.StoreStatus{Backend: "sqlite", Embedder: "ollama", LLM: "groq", Count: 2, Entries: []models.StoreEntry{{ID: "a:0:0", Text: "hello\nworld"}}}}
	out, err := run(t, f, "check", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored chunks: 2 (sqlite, embedder ollama, llm groq)")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "a:0:0")
}

func TestClearCmd(t *testing.T) {
	out, err := run(t, &fakeRunner{}, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 10 entries and 2 files")
}

func TestFilesCmdEmpty(t *testing.T) {
	out, err := run(t, &fakeRunner{}, "files")
	require.NoError(t, err)
	assert.Contains(t, out, "No files uploaded.")
}

func TestBuilderErrorSurfaces(t *testing.T) {
	root := NewRootCmd(func(context.Context) (Runner, error) { return nil, errors.New("bad config") })
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"check"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestRunnerClosedWhenCommandFails(t *testing.T) {
	f := &fakeRunner{queryErr: errors.New("generation error")}
	_, err := run(t, f, "query", "is it?")
	require.Error(t, err)
	assert.True(t, f.closed)
}
