package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/eventhub/docs"
	"github.com/kirinyoku/eventhub/internal/app"
	"github.com/kirinyoku/eventhub/internal/config"
)

// @title EventHub API
// @version 1.0
// @description Ticket inventory, reservations and booking lifecycle for events.
// @host localhost:8080
// @BasePath /
func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel)

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
