package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medash/medash-go/internal/config"
	"github.com/medash/medash-go/internal/handler"
	"github.com/medash/medash-go/internal/panel"
	"github.com/medash/medash-go/internal/repository"
	"github.com/medash/medash-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	store, err := repository.Open(cfg)
	if err != nil {
		logger.Error("opening storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dashboards := service.NewDashboardService(store, logger, cfg.GridColumns)
	sessions := service.NewSessionService(store, dashboards, logger, cfg.JWTSecret, cfg.JWTExpiry)

	if err := sessions.LoadTheme(ctx); err != nil {
		logger.Warn("loading theme", "error", err)
	}
	if err := dashboards.LoadDashboards(ctx); err != nil {
		logger.Error("loading dashboards", "error", err)
		os.Exit(1)
	}

	router := handler.NewRouter(ctx, handler.RouterDeps{
		Sessions:   sessions,
		Dashboards: dashboards,
		Registry:   panel.NewRegistry(),
		Logger:     logger,
		JWTSecret:  cfg.JWTSecret,
		ShareURL:   cfg.ShareURL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
