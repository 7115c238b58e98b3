package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jfp99/pizza-falchi-sub001/internal/app"
	"github.com/jfp99/pizza-falchi-sub001/internal/config"
)

// @title Falchi Slots API
// @version 1.0
// @description Order intake and pickup-slot capacity service for a pizzeria.
// @host localhost:8080
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
