// Package main is the entrypoint for the Content Radar API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contentradar/contentradar/internal/ai"
	"github.com/contentradar/contentradar/internal/analysis"
	"github.com/contentradar/contentradar/internal/api"
	"github.com/contentradar/contentradar/internal/api/handler"
	mw "github.com/contentradar/contentradar/internal/api/middleware"
	"github.com/contentradar/contentradar/internal/cache"
	"github.com/contentradar/contentradar/internal/config"
	"github.com/contentradar/contentradar/internal/embedding"
	"github.com/contentradar/contentradar/internal/extract"
	"github.com/contentradar/contentradar/internal/queue"
	"github.com/contentradar/contentradar/internal/store"
	"github.com/contentradar/contentradar/internal/worker"
	"github.com/contentradar/contentradar/pkg/models"
)

const (
	shutdownTimeout = 30 * time.Second
	rateLimitPerMin = 60
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create AI provider and analyzer
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

	// 6. Create store and queue
	pgStore := store.NewPostgresStore(pool)
	jobQueue := queue.NewPostgresQueue(pool, cfg.Queue)

	// 7. Start worker in-process unless disabled
	if cfg.Worker.Enabled {
		w := worker.New(jobQueue, cfg.Worker.PollInterval, logger)
		w.UseStatusCache(redisCache)
		w.Register(models.JobTypeAnalyze,
			worker.NewAnalyzeCaptureHandler(pgStore, extractor, analyzer, embedder, redisCache, logger))
		w.Register(models.JobTypeTruthAnalyze,
			worker.NewTruthCheckHandler(pgStore, extractor, analyzer, redisCache, logger))
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("worker stopped", "error", err)
			}
		}()
		slog.Info("worker started", "poll_interval", cfg.Worker.PollInterval)
	}

	// 8. Build router with dependencies
	deps := api.Dependencies{
		Logger:    logger,
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimiter(redisCache, rateLimitPerMin, logger),

		HealthHandler: handler.NewHealthHandler(pgStore, redisCache),

		CreateProject: handler.NewCreateProjectHandler(pgStore),
		ListProjects:  handler.NewListProjectsHandler(pgStore),
		GetProject:    handler.NewGetProjectHandler(pgStore),
		UpdateProject: handler.NewUpdateProjectHandler(pgStore),
		DeleteProject: handler.NewDeleteProjectHandler(pgStore),

		CreateCapture:  handler.NewCreateCaptureHandler(pgStore),
		ListCaptures:   handler.NewListCapturesHandler(pgStore),
		GetCapture:     handler.NewGetCaptureHandler(pgStore),
		UpdateCapture:  handler.NewUpdateCaptureHandler(pgStore),
		DeleteCapture:  handler.NewDeleteCaptureHandler(pgStore),
		AnalyzeCapture: handler.NewAnalyzeCaptureHandler(pgStore, jobQueue),

		CreateTruthCheck: handler.NewCreateTruthCheckHandler(jobQueue),
		GetTruthCheck:    handler.NewGetTruthCheckHandler(jobQueue),
		RetryTruthCheck:  handler.NewRetryTruthCheckHandler(jobQueue),

		EnqueueJob: handler.NewEnqueueJobHandler(jobQueue),
		PollJob:    handler.NewPollJobHandler(jobQueue, redisCache),

		CreateBrief: handler.NewCreateBriefHandler(pgStore),
		ListBriefs:  handler.NewListBriefsHandler(pgStore),
		GetBrief:    handler.NewGetBriefHandler(pgStore),
		DeleteBrief: handler.NewDeleteBriefHandler(pgStore),
		AddSlide:    handler.NewAddSlideHandler(pgStore),
		RemoveSlide: handler.NewRemoveSlideHandler(pgStore),

		ListMoments: handler.NewListMomentsHandler(pgStore, redisCache),

		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// The worker shares ctx and stops before the server drains.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
