// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

// Command api is the entry point for the Mangetsu HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services, register job handlers, start the worker pool.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mangetsu/mangetsu/internal/api"
	"github.com/mangetsu/mangetsu/internal/catalog/chapter"
	"github.com/mangetsu/mangetsu/internal/catalog/team"
	"github.com/mangetsu/mangetsu/internal/catalog/title"
	"github.com/mangetsu/mangetsu/internal/ingest/blob"
	"github.com/mangetsu/mangetsu/internal/platform/config"
	"github.com/mangetsu/mangetsu/internal/platform/constants"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
	"github.com/mangetsu/mangetsu/internal/platform/migration"
	pgstore "github.com/mangetsu/mangetsu/internal/platform/postgres"
	redisstore "github.com/mangetsu/mangetsu/internal/platform/redis"
	"github.com/mangetsu/mangetsu/internal/platform/sec"
	"github.com/mangetsu/mangetsu/internal/social/comment"
	"github.com/mangetsu/mangetsu/internal/social/list"
	"github.com/mangetsu/mangetsu/internal/social/notification"
	"github.com/mangetsu/mangetsu/internal/social/subscription"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "mangetsu"))
	slog.SetDefault(log)

	log.Info("[Mangetsu] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "mangetsu"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Verification ─────────────────────────────────────────────
	// Tokens are issued by the external identity service; this process only
	// verifies them against the published key.
	verifier, err := sec.NewTokenVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize token verifier")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckQueue: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	blobClient := blob.NewClient(cfg.BlobEndpoint, cfg.BlobAPIKey, cfg.BlobAPISecret)
	queue := jobs.NewQueue(rdb, log)

	titleRepository := title.NewRepository(pool, log)
	teamRepository := team.NewRepository(pool)
	chapterRepository := chapter.NewRepository(pool, log)
	listRepository := list.NewRepository(pool, log)
	commentRepository := comment.NewRepository(pool, log)
	subscriptionRepository := subscription.NewRepository(pool)
	notificationRepository := notification.NewRepository(pool)

	// The comment repository doubles as the reply resolver for
	// notification delivery; the notification service in turn feeds the
	// chapter pipeline its upload notices.
	notificationService := notification.NewService(notificationRepository, commentRepository, log)
	titleService := title.NewService(titleRepository, queue, log)
	teamService := team.NewService(teamRepository, blobClient, queue, log)
	chapterService := chapter.NewService(
		chapterRepository, titleRepository, teamRepository,
		blobClient, queue, notificationService, log,
	)
	listService := list.NewService(listRepository, log)
	commentService := comment.NewService(commentRepository, queue, log)
	subscriptionService := subscription.NewService(subscriptionRepository, log)

	// ── 9. Background Workers ─────────────────────────────────────────────
	queue.Register(jobs.ChapterPublish, chapterService.HandlePublish)
	queue.Register(jobs.ChapterRepublish, chapterService.HandleRepublish)
	queue.Register(jobs.ChapterDelete, chapterService.HandleDelete)
	queue.Register(jobs.TeamDelete, teamService.HandleDelete)
	queue.Register(jobs.NotifyNewChapter, notificationService.HandleNewChapter)
	queue.Register(jobs.NotifyStatusChanged, notificationService.HandleStatusChanged)
	queue.Register(jobs.NotifyCommentReply, notificationService.HandleCommentReply)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	queue.Start(workerCtx, cfg.WorkerCount)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Title:        title.NewHandler(titleService),
		Chapter:      chapter.NewHandler(chapterService),
		Team:         team.NewHandler(teamService),
		List:         list.NewHandler(listService),
		Comment:      comment.NewHandler(commentService),
		Subscription: subscription.NewHandler(subscriptionService),
		Notification: notification.NewHandler(notificationService),
	}

	server := api.NewServer(workerCtx, cfg, log, verifier, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete, then stop the
	// worker pool. In-flight jobs requeue through the retry policy.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}
	workerCancel()

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
