package activities

import (
	"context"
	"errors"

	"docudive/internal/ingest"
	"docudive/internal/service"
	"docudive/internal/util"

	"github.com/phuslu/log"
	"go.temporal.io/sdk/temporal"
)

// Backend is the part of service.Service the activities drive.
type Backend interface {
	SyncDocuments(ctx context.Context) ([]string, error)
	ClearStore(ctx context.Context) (int, error)
	IngestDocuments(ctx context.Context) (ingest.Report, error)
	ClearAll(ctx context.Context) (service.ClearResult, error)
}

type Activities struct {
	backend Backend
	logger  *log.Logger
}

func New(backend Backend, logger *log.Logger) *Activities {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Activities{backend: backend, logger: logger}
}

func (a *Activities) SyncDocumentsActivity(ctx context.Context, in SyncDocumentsInput) (SyncDocumentsOutput, error) {
	paths, err := a.backend.SyncDocuments(ctx)
	if err != nil {
		return SyncDocumentsOutput{}, a.fail("sync documents", in.RequestID, err)
	}
	return SyncDocumentsOutput{Paths: paths}, nil
}

func (a *Activities) ClearStoreActivity(ctx context.Context, in ClearStoreInput) (ClearStoreOutput, error) {
	n, err := a.backend.ClearStore(ctx)
	if err != nil {
		return ClearStoreOutput{}, a.fail("clear store", in.RequestID, err)
	}
	return ClearStoreOutput{Removed: n}, nil
}

// IngestDocumentsActivity is safe to retry: a rerun only inserts ids the
// store does not have yet.
func (a *Activities) IngestDocumentsActivity(ctx context.Context, in IngestDocumentsInput) (IngestDocumentsOutput, error) {
	rep, err := a.backend.IngestDocuments(ctx)
	if err != nil {
		return IngestDocumentsOutput{}, a.fail("ingest documents", in.RequestID, err)
	}
	return IngestDocumentsOutput{Report: rep}, nil
}

func (a *Activities) ClearAllActivity(ctx context.Context, in ClearAllInput) (ClearAllOutput, error) {
	res, err := a.backend.ClearAll(ctx)
	if err != nil {
		return ClearAllOutput{Entries: res.Entries, Objects: res.Objects}, a.fail("clear all", in.RequestID, err)
	}
	return ClearAllOutput{Entries: res.Entries, Objects: res.Objects}, nil
}

// fail logs err and converts it to an application error whose type names the
// error kind, so callers on the far side of Temporal can restore it. Input and
// configuration errors are non-retryable.
func (a *Activities) fail(op, requestID string, err error) error {
	a.logger.Error().Err(err).Str("op", op).Str("request_id", requestID).Msg("activity failed")
	kind := util.KindName(err)
	if kind == "" {
		return err
	}
	if errors.Is(err, util.ErrInvalidInput) || errors.Is(err, util.ErrConfiguration) {
		return temporal.NewNonRetryableApplicationError(err.Error(), kind, err)
	}
	return temporal.NewApplicationError(err.Error(), kind, err)
}
