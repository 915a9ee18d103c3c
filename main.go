package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tubequery/internal/adapter/gemini"
	"tubequery/internal/app"
	"tubequery/internal/config"
	"tubequery/internal/logger"
)

func main() {
	base := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(logger.NewContextHandler(base)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.AnswerModel)
	if err != nil {
		slog.Error("failed to create generator", "error", err)
		os.Exit(1)
	}
	defer generator.Close()

	a, err := app.New(cfg, deps.DB, deps.VectorStore, embedder, generator, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	slog.Info("tubequery starting",
		"ingest_workers", cfg.IngestWorkers,
		"fetch_workers", cfg.FetchWorkers,
		"chunk_size", cfg.ChunkSize)

	if err := a.Run(ctx); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}
