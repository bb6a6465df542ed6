package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/slotswap/swap_backend/internal/app"
	"github.com/slotswap/swap_backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		log.Fatalf("Failed to init app: %v", err)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Sync()
		log.Fatalf("Server error: %v", err)
	}
}
