package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docudive/internal/config"
	"docudive/internal/logging"
	"docudive/internal/objectstore"
	"docudive/internal/providers"
	"docudive/internal/util"
	"docudive/internal/vectorstore/memory"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.DataDir = filepath.Join(root, "data")
	cfg.ReportDir = filepath.Join(root, "out")
	cfg.UploadDir = filepath.Join(root, "uploads")
	cfg.StoreBackend = "memory"
	cfg.EmbedDim = 16
	cfg.ChunkSize = 60
	cfg.ChunkOverlap = 10
	return cfg
}

func newTestService(t *testing.T, cfg config.Config) *Service {
	t.Helper()
	mock := providers.NewMockProvider(cfg.EmbedDim)
	pm := providers.NewManagerWith(providers.ParseProviderRef("mock"), mock, providers.ParseProviderRef("mock"), mock, cfg.EmbedDim)
	svc, err := New(cfg, logging.Discard(), memory.New(), objectstore.NewLocal(cfg.UploadDir), pm)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func pdfBytes(t *testing.T, pages ...string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.Cell(40, 10, text)
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestUploadRejectsNonPDF(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	_, err := svc.UploadFile(context.Background(), "notes.txt", strings.NewReader("x"))
	require.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestUploadSyncIngestQuery(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc := newTestService(t, cfg)

	body := pdfBytes(t, "Monopoly starts with 1500 dollars", "Go collects 200 dollars")
	up, err := svc.UploadFile(ctx, "../rules.pdf", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "rules.pdf", up.Key)
	assert.Equal(t, int64(len(body)), up.Size)
	assert.Len(t, up.SHA256, 64)

	files, err := svc.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	res, err := svc.Ingest(ctx, IngestOptions{Sync: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Report.Documents)
	assert.Equal(t, 2, res.Report.Pages)
	require.Positive(t, res.Report.Added)
	assert.Contains(t, res.Report.AddedIDs, filepath.Join(cfg.DataDir, "rules.pdf")+":0:0")

	_, err = os.Stat(filepath.Join(cfg.ReportDir, res.Report.RunID, "report.json"))
	require.NoError(t, err)
	added, err := os.ReadFile(filepath.Join(cfg.ReportDir, res.Report.RunID, "added.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, res.Report.Added, strings.Count(string(added), "\n"))

	again, err := svc.Ingest(ctx, IngestOptions{})
	require.NoError(t, err)
	assert.Zero(t, again.Report.Added)

	ans, err := svc.Query(ctx, "How much money at the start?")
	require.NoError(t, err)
	assert.NotEmpty(t, ans.Sources)
	assert.Contains(t, ans.Response, "\n\nSources: ['")

	st, err := svc.Inspect(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, res.Report.Added, st.Count)
	assert.Len(t, st.Entries, 1)
	assert.Equal(t, "mock", st.Embedder)
	assert.Equal(t, "mock", st.LLM)
}

func TestIngestResetClearsFirst(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc := newTestService(t, cfg)
	_, err := svc.UploadFile(ctx, "a.pdf", bytes.NewReader(pdfBytes(t, "alpha")))
	require.NoError(t, err)

	first, err := svc.Ingest(ctx, IngestOptions{Sync: true})
	require.NoError(t, err)

	res, err := svc.Ingest(ctx, IngestOptions{Reset: true})
	require.NoError(t, err)
	assert.Equal(t, first.Report.Added, res.Cleared)
	assert.Equal(t, first.Report.Added, res.Report.Added)
}

func TestIngestMissingDataDirAddsNothing(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	res, err := svc.Ingest(context.Background(), IngestOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Report.Documents)
	assert.Zero(t, res.Report.Added)
}

func TestClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc := newTestService(t, cfg)
	_, err := svc.UploadFile(ctx, "a.pdf", bytes.NewReader(pdfBytes(t, "alpha")))
	require.NoError(t, err)
	ing, err := svc.Ingest(ctx, IngestOptions{Sync: true})
	require.NoError(t, err)

	res, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, ing.Report.Added, res.Entries)
	assert.Equal(t, 1, res.Objects)

	exists, err := util.DirExists(cfg.DataDir)
	require.NoError(t, err)
	assert.False(t, exists)

	st, err := svc.Inspect(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, st.Count)
	assert.Empty(t, st.Entries)
}

func TestConcurrentWriterIsRejected(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	svc.writer.Lock()
	defer svc.writer.Unlock()

	_, err := svc.Ingest(context.Background(), IngestOptions{})
	require.ErrorIs(t, err, util.ErrIngestRunning)
	_, err = svc.Clear(context.Background())
	require.ErrorIs(t, err, util.ErrIngestRunning)
}

func TestBadPromptTemplateFailsBuild(t *testing.T) {
	cfg := testConfig(t)
	cfg.PromptTemplate = "no placeholders"
	mock := providers.NewMockProvider(cfg.EmbedDim)
	pm := providers.NewManagerWith(providers.ParseProviderRef("mock"), mock, providers.ParseProviderRef("mock"), mock, cfg.EmbedDim)
	_, err := New(cfg, logging.Discard(), memory.New(), objectstore.NewLocal(cfg.UploadDir), pm)
	require.ErrorIs(t, err, util.ErrConfiguration)
}

func TestBuildWithSQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "sqlite"
	cfg.StoreDir = filepath.Join(t.TempDir(), "chroma")
	svc, err := Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer svc.Close()

	st, err := svc.Inspect(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", st.Backend)
	assert.Zero(t, st.Count)
}
