package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"eventify/cmd/consumers/jobs"
	"eventify/internal/config"
	"eventify/internal/consumers"
	"eventify/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Get().Info("Starting consumers service...")

	// Отдельный client id, иначе NATS Streaming отклонит второе подключение
	cfg.NATS.ClientID = cfg.NATS.ClientID + "-consumers"

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumerService, err := consumers.NewConsumerService(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(ctx); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	expiration := jobs.NewBookingExpirationJob(consumerService.Services().Bookings, cfg.BookingExpiration, jobs.DefaultCheckInterval)
	go expiration.Run(ctx)

	logger.Get().Info("Consumers service started successfully")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		logger.Get().Error("Error during shutdown", "error", err)
	}
	logger.Get().Info("Consumers service stopped")
}
