package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atrium-admin/atrium/internal/app"
	"github.com/atrium-admin/atrium/internal/audit"
	"github.com/atrium-admin/atrium/internal/auth"
	"github.com/atrium-admin/atrium/internal/authz"
	"github.com/atrium-admin/atrium/internal/blog"
	"github.com/atrium-admin/atrium/internal/observability"
	"github.com/atrium-admin/atrium/internal/platform/cache"
	"github.com/atrium-admin/atrium/internal/platform/db"
	"github.com/atrium-admin/atrium/internal/roles"
	"github.com/atrium-admin/atrium/internal/users"
	"github.com/atrium-admin/atrium/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	sessions := auth.NewSessionStore(store, cfg.SessionTTL)
	authService := auth.NewService(authRepo, sessions)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}

	catalog := authz.DefaultCatalog()
	permCache := authz.NewPermissionCache(store, cfg.AuthzPermissionsTTL, cfg.AuthzProfileTTL)
	roleStore := authz.NewPGRoleStore(pool)
	resolver := authz.NewResolver(catalog, roleStore, permCache, logger, metrics)
	authzService := authz.NewService(resolver, permCache, logger)
	guard := authz.Middleware{Service: authzService, Logger: logger}
	permissionsHandler := authz.NewHandler(logger, authzService, guard)

	auditRecorder := audit.NewRecorder(pool)

	warmups, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := warmups.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, authzService, auditRecorder, warmups, logger)
	rolesHandler := roles.NewHandler(logger, rolesService, guard)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, authzService)
	usersHandler := users.NewHandler(logger, usersService, guard)

	blogRepo := blog.NewRepository(pool)
	blogService := blog.NewService(blogRepo, authzService)
	blogHandler := blog.NewHandler(logger, blogService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		PermissionsHandler: permissionsHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		BlogHandler:        blogHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
