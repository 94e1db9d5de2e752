// Package service wires configuration to the ingestion and query core. The
// HTTP API, the CLI and the Temporal activities all call into a Service.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docudive/internal/chunking"
	"docudive/internal/config"
	"docudive/internal/documents"
	"docudive/internal/ingest"
	"docudive/internal/models"
	"docudive/internal/objectstore"
	"docudive/internal/providers"
	"docudive/internal/rag"
	"docudive/internal/util"
	"docudive/internal/vectorstore"
	"docudive/internal/vectorstore/memory"
	"docudive/internal/vectorstore/postgres"
	"docudive/internal/vectorstore/sqlite"

	"github.com/phuslu/log"
)

type Service struct {
	cfg       config.Config
	logger    *log.Logger
	store     vectorstore.Store
	objects   objectstore.Store
	providers *providers.Manager
	splitter  *chunking.Splitter
	engine    *rag.Engine

	// writer serializes ingest and clear; the store allows one writer.
	writer sync.Mutex
}

// Build constructs every collaborator named by cfg. Close releases them.
func Build(ctx context.Context, cfg config.Config, logger *log.Logger) (*Service, error) {
	pm, err := providers.NewManager(ctx, cfg)
	if err != nil {
		return nil, err
	}
	objects, err := openObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := openVectorStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := New(cfg, logger, store, objects, pm)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}

// New assembles a Service from already built collaborators.
func New(cfg config.Config, logger *log.Logger, store vectorstore.Store, objects objectstore.Store, pm *providers.Manager) (*Service, error) {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	splitter, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	var tpl *rag.Template
	if strings.TrimSpace(cfg.PromptTemplate) != "" {
		tpl, err = rag.NewTemplate(cfg.PromptTemplate)
		if err != nil {
			return nil, err
		}
	}
	engine := rag.NewEngine(
		rag.NewRetriever(pm.Embedder(), store),
		pm.LLM(),
		rag.EngineOptions{TopK: cfg.TopK, Template: tpl},
		logger,
	)
	return &Service{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		objects:   objects,
		providers: pm,
		splitter:  splitter,
		engine:    engine,
	}, nil
}

func openVectorStore(ctx context.Context, cfg config.Config) (vectorstore.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return sqlite.Open(ctx, cfg.StoreDir)
	case "postgres":
		return postgres.Open(ctx, cfg.PostgresURL, cfg.EmbedDim)
	case "memory":
		return memory.New(), nil
	default:
		return nil, util.WrapOp("open vector store", util.ErrConfiguration, fmt.Errorf("unknown backend %q", cfg.StoreBackend))
	}
}

func openObjectStore(ctx context.Context, cfg config.Config) (objectstore.Store, error) {
	switch cfg.ObjectStore {
	case "local":
		return objectstore.NewLocal(cfg.UploadDir), nil
	case "s3":
		s, err := objectstore.NewS3(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			return nil, util.WrapOp("open object store", util.ErrConfiguration, err)
		}
		return s, nil
	default:
		return nil, util.WrapOp("open object store", util.ErrConfiguration, fmt.Errorf("unknown object store %q", cfg.ObjectStore))
	}
}

func (s *Service) Config() config.Config          { return s.cfg }
func (s *Service) Close() error {
	return s.store.Close()
}

type UploadResult struct {
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

func (s *Service) ListFiles(ctx context.Context) ([]models.StoredFile, error) {
	return s.objects.List(ctx)
}

// UploadFile stores one PDF under its base name, replacing any file of the
// same name.
func (s *Service) UploadFile(ctx context.Context, name string, r io.Reader) (UploadResult, error) {
	key := filepath.Base(strings.TrimSpace(name))
	if key == "" || key == "." || key == string(filepath.Separator) {
		return UploadResult{}, util.WrapOp("upload", util.ErrInvalidInput, errors.New("file name is required"))
	}
	if !util.IsPDF(key) {
		return UploadResult{}, util.WrapOp("upload "+key, util.ErrInvalidInput, errors.New("only .pdf files are accepted"))
	}
	hr := util.NewHashReader(r)
	if err := s.objects.Put(ctx, key, hr); err != nil {
		return UploadResult{}, err
	}
	s.logger.Info().Str("key", key).Int64("size", hr.Size()).Msg("file uploaded")
	return UploadResult{Key: key, Size: hr.Size(), SHA256: hr.SumHex()}, nil
}

// SyncDocuments copies uploaded PDFs into the data directory. It is a no-op
// when the local upload directory already is the data directory.
func (s *Service) SyncDocuments(ctx context.Context) ([]string, error) {
	if local, ok := s.objects.(*objectstore.Local); ok && local.Root() == absPath(s.cfg.DataDir) {
		return nil, nil
	}
	paths, err := objectstore.SyncToDir(ctx, s.objects, s.cfg.DataDir)
	if err != nil {
		return paths, err
	}
	s.logger.Info().Int("files", len(paths)).Str("dir", s.cfg.DataDir).Msg("documents synced")
	return paths, nil
}

func (s *Service) ClearStore(ctx context.Context) (int, error) {
	n, err := s.store.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("removed", n).Msg("vector store cleared")
	return n, nil
}

// IngestDocuments runs one pipeline pass over the data directory and writes
// the run report.
func (s *Service) IngestDocuments(ctx context.Context) (ingest.Report, error) {
	src := documents.NewPDFDirectory(s.cfg.DataDir, s.logger)
	p := ingest.NewPipeline(src, s.splitter, s.providers.Embedder(), s.store, s.logger).WithBatchSize(s.cfg.EmbedBatchSize)
	rep, err := p.Run(ctx)
	if err != nil {
		return rep, err
	}
	if err := s.writeReport(rep); err != nil {
		s.logger.Warn().Err(err).Str("run_id", rep.RunID).Msg("write run report failed")
	}
	s.logger.Info().Str("run_id", rep.RunID).Int("documents", rep.Documents).Int("added", rep.Added).Msg("ingestion finished")
	return rep, nil
}

type IngestOptions struct {
	Reset bool `json:"reset"`
	Sync  bool `json:"sync"`
}

type IngestResult struct {
	Report  ingest.Report `json:"report"`
	Synced  int           `json:"synced"`
	Cleared int           `json:"cleared"`
}

// Ingest syncs, optionally resets, then ingests. Only one Ingest or Clear runs
// at a time; a concurrent call fails with util.ErrIngestRunning.
func (s *Service) Ingest(ctx context.Context, opts IngestOptions) (IngestResult, error) {
	if !s.writer.TryLock() {
		return IngestResult{}, util.ErrIngestRunning
	}
	defer s.writer.Unlock()

	var res IngestResult
	if opts.Sync {
		paths, err := s.SyncDocuments(ctx)
		if err != nil {
			return res, err
		}
		res.Synced = len(paths)
	}
	if opts.Reset {
		n, err := s.ClearStore(ctx)
		if err != nil {
			return res, err
		}
		res.Cleared = n
	}
	rep, err := s.IngestDocuments(ctx)
	res.Report = rep
	return res, err
}

type ClearResult struct {
	Entries int `json:"entries"`
	Objects int `json:"objects"`
}

// Clear empties the vector store, deletes every uploaded object and removes
// the local data directory.
func (s *Service) Clear(ctx context.Context) (ClearResult, error) {
	if !s.writer.TryLock() {
		return ClearResult{}, util.ErrIngestRunning
	}
	defer s.writer.Unlock()
	return s.ClearAll(ctx)
}

// ClearAll is Clear without the writer lock, for callers that already
// serialize runs.
func (s *Service) ClearAll(ctx context.Context) (ClearResult, error) {
	var res ClearResult
	n, err := s.ClearStore(ctx)
	if err != nil {
		return res, err
	}
	res.Entries = n
	m, err := objectstore.DeleteAll(ctx, s.objects)
	res.Objects = m
	if err != nil {
		return res, err
	}
	if err := os.RemoveAll(s.cfg.DataDir); err != nil {
		return res, fmt.Errorf("remove data dir: %w", err)
	}
	s.logger.Info().Int("entries", res.Entries).Int("objects", res.Objects).Msg("all data cleared")
	return res, nil
}

func (s *Service) Query(ctx context.Context, question string) (rag.Answer, error) {
	return s.engine.Answer(ctx, question)
}

type StoreStatus struct {
	Backend  string              `json:"backend"`
	Embedder string              `json:"embedder"`
	LLM      string              `json:"llm"`
	Count    int                 `json:"count"`
	Entries  []models.StoreEntry `json:"entries"`
}

// Inspect reports the entry count and the first n entries.
func (s *Service) Inspect(ctx context.Context, n int) (StoreStatus, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return StoreStatus{}, err
	}
	st := StoreStatus{
		Backend:  s.cfg.StoreBackend,
		Embedder: s.providers.EmbedRef().Name,
		LLM:      s.providers.LLMRef().Name,
		Count:    count,
		Entries:  []models.StoreEntry{},
	}
	if n > 0 && count > 0 {
		entries, err := s.store.Peek(ctx, n)
		if err != nil {
			return StoreStatus{}, err
		}
		st.Entries = entries
	}
	return st, nil
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
