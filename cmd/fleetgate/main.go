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

	"github.com/fleetgate/fleetgate/internal/app"
	"github.com/fleetgate/fleetgate/internal/gate"
	"github.com/fleetgate/fleetgate/internal/observability"
	"github.com/fleetgate/fleetgate/internal/platform/cache"
	"github.com/fleetgate/fleetgate/internal/platform/db"
	"github.com/fleetgate/fleetgate/internal/rbac"
	"github.com/fleetgate/fleetgate/internal/shared"
	"github.com/fleetgate/fleetgate/jobs"
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

	sessions := shared.NewSessionReader(redisClient, cfg.SessionCookie)

	publicPaths := gate.DefaultPublicPaths()
	publicPaths = append(publicPaths, "/healthz", "/metrics")
	publicPaths = append(publicPaths, cfg.ExtraPublicPaths...)
	rules := gate.NewRules(gate.RulesConfig{
		PublicPaths:   publicPaths,
		ProxyPrefixes: gate.DefaultProxyPrefixes(),
		CookieName:    cfg.SessionCookie,
		LoginPath:     cfg.LoginPath,
		DeniedPath:    cfg.DeniedPath,
	})

	metrics := observability.NewMetrics()
	edge := gate.Gate{Rules: rules, Logger: logger, Metrics: metrics}
	guard := gate.Guard{Decoder: sessions, DeniedPath: rules.DeniedPath(), Logger: logger}

	permissions := rbac.NewPostgresPermissions(pool)
	roles := rbac.NewPostgresRoles(pool)
	assignments := rbac.NewPostgresAssignments(pool)
	rbacService := rbac.NewService(permissions, roles, assignments, logger)
	rbacHandler := rbac.NewHandler(logger, rbacService)

	admissionProxy, err := gate.NewPassthroughProxy(cfg.AdmissionUpstream, logger)
	if err != nil {
		logger.Error("admission proxy", slog.Any("error", err))
		os.Exit(1)
	}
	transportProxy, err := gate.NewPassthroughProxy(cfg.TransportUpstream, logger)
	if err != nil {
		logger.Error("transport proxy", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Gate:           edge,
		Guard:          guard,
		RBACHandler:    rbacHandler,
		AdmissionProxy: admissionProxy,
		TransportProxy: transportProxy,
		JobsHandler:    jobsHandler,
		Metrics:        metrics,
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
