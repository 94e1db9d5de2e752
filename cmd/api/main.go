package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docudive/internal/api"
	"docudive/internal/config"
	"docudive/internal/logging"
	"docudive/internal/service"
	"docudive/internal/workflows"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	tclient "go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build service")
	}
	defer svc.Close()

	var jobs api.JobRunner = svc
	if cfg.JobRunner == "temporal" {
		tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			logger.Fatal().Err(err).Msg("dial temporal")
		}
		defer tc.Close()
		jobs = workflows.NewDispatcher(tc, cfg.TemporalTaskQueue)
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(cfg, svc, jobs, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.APIAddr).Str("store", cfg.StoreBackend).Str("embed", cfg.EmbedProvider).Str("llm", cfg.LLMProvider).Str("jobs", cfg.JobRunner).Msg("docudive api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("serve")
	}
}
