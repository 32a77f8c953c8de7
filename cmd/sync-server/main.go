// Package main Household Sync API
//
// @title           Household Sync API
// @version         1.0
// @description     Сервер документов домашнего учета: частичная запись, чтение, удаление и загрузка вложений

// @host      localhost:8080
// @BasePath  /api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/household-ledger/internal/app/syncserver"
	"github.com/magabrotheeeer/household-ledger/internal/config"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	logger.Info("starting sync-server", slog.String("env", cfg.Env))
	logger.Debug("config loaded\n" + cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := syncserver.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("sync-server stopped gracefully")
}

func setupLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == "prod" {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
