package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atrium-admin/atrium/internal/app"
	"github.com/atrium-admin/atrium/internal/auth"
	"github.com/atrium-admin/atrium/internal/authz"
	"github.com/atrium-admin/atrium/internal/platform/cache"
	"github.com/atrium-admin/atrium/internal/platform/db"
	"github.com/atrium-admin/atrium/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	store := cache.NewStore(redisClient)

	catalog := authz.DefaultCatalog()
	permCache := authz.NewPermissionCache(store, cfg.AuthzPermissionsTTL, cfg.AuthzProfileTTL)
	roleStore := authz.NewPGRoleStore(pool)
	resolver := authz.NewResolver(catalog, roleStore, permCache, logger, nil)
	authzService := authz.NewService(resolver, permCache, logger)

	authRepo := auth.NewRepository(pool)
	warmupJob := jobs.NewAuthzWarmupJob(authRepo, authzService, logger, nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeAuthzWarmup, Handler: warmupJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
