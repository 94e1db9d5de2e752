package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docudive/internal/chunking"
	"docudive/internal/documents"
	"docudive/internal/models"
	"docudive/internal/providers"
	"docudive/internal/util"
	"docudive/internal/vectorstore"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

const DefaultEmbedBatchSize = 64

type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Documents  int       `json:"documents"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	Existing   int       `json:"existing"`
	Added      int       `json:"added"`
	AddedIDs   []string  `json:"-"`
}

type Pipeline struct {
	source    documents.Source
	splitter  *chunking.Splitter
	embedder  providers.EmbeddingProvider
	store     vectorstore.Store
	logger    *log.Logger
	batchSize int
}

func NewPipeline(source documents.Source, splitter *chunking.Splitter, embedder providers.EmbeddingProvider, store vectorstore.Store, logger *log.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		logger:    logger,
		batchSize: DefaultEmbedBatchSize,
	}
}

// WithBatchSize bounds how many chunk texts go to the embedder per call.
func (p *Pipeline) WithBatchSize(n int) *Pipeline {
	if n > 0 {
		p.batchSize = n
	}
	return p
}

// Run ingests the source once. Every new chunk is embedded before anything is
// written, so a failed run leaves the store as it was. Running it again over
// the same documents adds nothing.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	logger := p.logger
	if logger == nil {
		logger = &log.DefaultLogger
	}

	docs, err := p.source.Documents(ctx)
	if err != nil {
		return rep, fmt.Errorf("load documents: %w", err)
	}
	rep.Documents = len(docs)
	for _, d := range docs {
		rep.Pages += len(d.Pages)
	}

	chunks := chunking.AssignIDs(p.splitter.SplitDocuments(docs))
	rep.Chunks = len(chunks)

	existing, err := p.store.ListIDs(ctx)
	if err != nil {
		return rep, fmt.Errorf("list existing ids: %w", err)
	}
	rep.Existing = len(existing)
	logger.Info().Str("run_id", rep.RunID).Int("count", len(existing)).Msg("existing documents in store")

	fresh := Deduplicate(existing, chunks)
	if len(fresh) == 0 {
		logger.Info().Str("run_id", rep.RunID).Msg("no new documents to add")
		rep.FinishedAt = time.Now().UTC()
		return rep, nil
	}
	logger.Info().Str("run_id", rep.RunID).Int("count", len(fresh)).Msg("adding new documents")

	if err := p.embed(ctx, fresh); err != nil {
		return rep, err
	}

	entries := make([]models.StoreEntry, 0, len(fresh))
	for _, c := range fresh {
		entries = append(entries, models.EntryFromChunk(c))
	}
	if err := p.store.Insert(ctx, entries); err != nil {
		if !errors.Is(err, util.ErrStoreWrite) {
			err = util.WrapOp("insert", util.ErrStoreWrite, err)
		}
		return rep, fmt.Errorf("insert %d entries: %w", len(entries), err)
	}

	rep.Added = len(fresh)
	rep.AddedIDs = make([]string, 0, len(fresh))
	for _, c := range fresh {
		rep.AddedIDs = append(rep.AddedIDs, c.ID)
	}
	rep.FinishedAt = time.Now().UTC()
	return rep, nil
}

func (p *Pipeline) embed(ctx context.Context, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		inputs := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			inputs = append(inputs, c.Text)
		}
		vectors, _, err := p.embedder.Embed(ctx, providers.EmbedRequest{Operation: "ingest", Inputs: inputs})
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(inputs) {
			return fmt.Errorf("embed chunks %d-%d: got %d vectors: %w", start, end-1, len(vectors), util.ErrEmbeddingUnavailable)
		}
		for i := range vectors {
			chunks[start+i].Embedding = vectors[i]
		}
	}
	return nil
}
