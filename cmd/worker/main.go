package main

import (
	"context"

	"docudive/internal/activities"
	"docudive/internal/config"
	"docudive/internal/logging"
	"docudive/internal/service"
	"docudive/internal/workflows"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("dial temporal")
	}
	defer c.Close()

	svc, err := service.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build service")
	}
	defer svc.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{MaxConcurrentActivityExecutionSize: 1})
	workflows.Register(w)
	activities.Register(w, activities.New(svc, logger))

	logger.Info().Str("temporal", cfg.TemporalAddress).Str("queue", cfg.TemporalTaskQueue).Str("store", cfg.StoreBackend).Msg("docudive worker listening")
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}
