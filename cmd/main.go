package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"todo-api/internal/cache"
	"todo-api/internal/config"
	"todo-api/internal/controller"
	"todo-api/internal/database"
	"todo-api/internal/metrics"
	"todo-api/internal/queue"
	"todo-api/internal/routes"
	"todo-api/internal/worker"
	"todo-api/pkg/logger"
)

func main() {
	// Missing .env is fine; real env vars win over it
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	logger.SetLevel(cfg.LogLevel)

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.MigrateOrCreateSchema(ctx, db, cfg.DBDriver); err != nil {
			logger.Error(ctx, "Schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	// Redis is optional; a connect failure only disables caching
	rc, err := cache.New(ctx, cfg)
	if err != nil {
		logger.Warn(ctx, "Redis unavailable; serving without cache", "error", err)
		rc = nil
	}
	defer rc.Close()

	m := metrics.New()
	m.RegisterDB(db)

	queue.EnsureTopic(ctx, cfg)
	var events controller.EventPublisher
	publisher := queue.NewPublisher(ctx, cfg, m)
	if publisher != nil {
		events = publisher
	}
	defer publisher.Close()

	// Consumes change events from every replica and drops stale cache entries
	go worker.Run(ctx, cfg, rc)

	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Router(routes.Deps{
			Config:  cfg,
			DB:      db,
			Cache:   rc,
			Events:  events,
			Metrics: m,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Server shutdown error", "error", err)
	}
	logger.Info(shutdownCtx, "Server stopped")
}
