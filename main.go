package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mlsight/internal/app"
	"mlsight/internal/config"
	"mlsight/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()

	a, err := app.New(cfg, deps.DB, deps.NSQProducer, deps.Embedder)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	if err := a.StartConsumers(); err != nil {
		slog.Error("failed to start consumers", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	a.StopConsumers()
	deps.NSQProducer.Stop()
	slog.Info("shutdown complete")
}
