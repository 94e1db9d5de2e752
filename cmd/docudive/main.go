package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"docudive/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
