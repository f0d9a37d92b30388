package main

import (
	"context"
	"flag"
	"os"

	"eventify/internal/logger"
	"eventify/internal/validation"
)

func main() {
	var baseURL, userID string
	flag.StringVar(&baseURL, "url", "http://localhost:8081", "Base URL for API validation")
	flag.StringVar(&userID, "user", "validator", "Value of the X-User-ID header")
	flag.Parse()

	logger.Init("info", "text")

	if err := validation.NewAPIValidator(baseURL, userID).ValidateAll(context.Background()); err != nil {
		logger.Get().Error("Validation failed", "error", err)
		os.Exit(1)
	}
	logger.Get().Info("Validation passed")
}
