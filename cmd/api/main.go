package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"eventify/internal/api"
	"eventify/internal/config"
	"eventify/internal/logger"
	"eventify/internal/validation"
)

func main() {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Проверяем, нужно ли запустить валидацию
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		if err := validation.RunValidation(ctx, "http://localhost:"+cfg.Port); err != nil {
			logger.Fatal("Validation failed", "error", err)
		}
		return
	}

	server, err := api.NewServer(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize server", "error", err)
	}

	if err := server.Run(ctx); err != nil {
		logger.Get().Error("Server stopped with error", "error", err)
	}

	if err := server.Cleanup(); err != nil {
		logger.Get().Error("Error during cleanup", "error", err)
	}
	logger.Get().Info("Server stopped")
}
