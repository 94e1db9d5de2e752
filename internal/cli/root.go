// Package cli is the docudive command line: ingest, query, clear, check and
// files, each running the service in-process.
package cli

import (
	"context"
	"errors"
	"io"

	"docudive/internal/config"
	"docudive/internal/logging"
	"docudive/internal/models"
	"docudive/internal/rag"
	"docudive/internal/service"

	"github.com/spf13/cobra"
)

// Runner is the service surface the commands use.
type Runner interface {
	Ingest(ctx context.Context, opts service.IngestOptions) (service.IngestResult, error)
	Clear(ctx context.Context) (service.ClearResult, error)
	Query(ctx context.Context, question string) (rag.Answer, error)
	Inspect(ctx context.Context, n int) (service.StoreStatus, error)
	ListFiles(ctx context.Context) ([]models.StoredFile, error)
	io.Closer
}

// Builder opens a Runner for one command invocation.
type Builder func(ctx context.Context) (Runner, error)

// ServiceBuilder loads configuration and builds a *service.Service.
func ServiceBuilder(ctx context.Context) (Runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return service.Build(ctx, cfg, logging.New(cfg.LogLevel, cfg.LogFormat))
}

type app struct {
	build  Builder
	runner Runner
}

func (a *app) open(cmd *cobra.Command) (Runner, error) {
	if a.runner != nil {
		return a.runner, nil
	}
	if a.build == nil {
		return nil, errors.New("service not configured")
	}
	r, err := a.build(cmd.Context())
	if err != nil {
		return nil, err
	}
	a.runner = r
	return r, nil
}

func (a *app) close() error {
	if a.runner == nil {
		return nil
	}
	err := a.runner.Close()
	a.runner = nil
	return err
}

func NewRootCmd(build Builder) *cobra.Command {
	a := &app{build: build}
	root := &cobra.Command{
		Use:   "docudive",
		Short: "Ask questions about a folder of PDFs",
		Long: `docudive ingests PDF documents into a vector store and answers
questions from the most relevant chunks, citing the chunk ids it used.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newIngestCmd(a),
		newQueryCmd(a),
		newClearCmd(a),
		newCheckCmd(a),
		newFilesCmd(a),
	)
	for _, c := range root.Commands() {
		if c.RunE != nil {
			c.RunE = a.closing(c.RunE)
		}
	}
	return root
}

// closing releases the runner once the command returns, including on error,
// where cobra skips the post-run hooks.
func (a *app) closing(runE func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); err == nil {
				err = cerr
			}
		}()
		return runE(cmd, args)
	}
}

func Execute(ctx context.Context) error {
	return NewRootCmd(ServiceBuilder).ExecuteContext(ctx)
}
