// Package main is the entrypoint for a standalone Content Radar worker.
// Multiple workers can poll the same jobs table; the claim is atomic at the
// database, so scale-out needs no coordination.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/contentradar/contentradar/internal/ai"
	"github.com/contentradar/contentradar/internal/analysis"
	"github.com/contentradar/contentradar/internal/cache"
	"github.com/contentradar/contentradar/internal/config"
	"github.com/contentradar/contentradar/internal/embedding"
	"github.com/contentradar/contentradar/internal/extract"
	"github.com/contentradar/contentradar/internal/queue"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/internal/worker"
	"github.com/contentradar/contentradar/pkg/models"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// Migrations are owned by the server process; the worker only assumes
	// the schema already exists.

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	aiProvider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", aiProvider.Name())

	analyzer := analysis.NewAnalyzer(aiProvider, cfg.AI, logger)
	extractor := extract.New(cfg.Extract)

	var embedder worker.Embedder
	if cfg.Embedding.Enabled {
		embedder = embedding.NewHTTPClient(cfg.Embedding)
		slog.Info("embedding client initialized", "model", cfg.Embedding.Model)
	}

	pgStore := store.NewPostgresStore(pool)
	jobQueue := queue.NewPostgresQueue(pool, cfg.Queue)

	w := worker.New(jobQueue, cfg.Worker.PollInterval, logger)
	w.UseStatusCache(redisCache)
	w.Register(models.JobTypeAnalyze,
		worker.NewAnalyzeCaptureHandler(pgStore, extractor, analyzer, embedder, redisCache, logger))
	w.Register(models.JobTypeTruthAnalyze,
		worker.NewTruthCheckHandler(pgStore, extractor, analyzer, redisCache, logger))

	slog.Info("worker started", "poll_interval", cfg.Worker.PollInterval)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker run: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}
