// Package syncserver собирает сервер синхронизации документов.
package syncserver

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/household-ledger/internal/config"
	"github.com/magabrotheeeer/household-ledger/internal/http/handlers/document/fetch"
	"github.com/magabrotheeeer/household-ledger/internal/http/handlers/document/push"
	"github.com/magabrotheeeer/household-ledger/internal/http/handlers/document/remove"
	"github.com/magabrotheeeer/household-ledger/internal/http/handlers/health"
	"github.com/magabrotheeeer/household-ledger/internal/http/handlers/upload"
	"github.com/magabrotheeeer/household-ledger/internal/http/middlewarectx"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

// DocumentService операции над документами.
type DocumentService interface {
	Fetch(ctx context.Context, userID string) (*wire.RawDocument, error)
	Push(ctx context.Context, doc wire.RawDocument) (int64, error)
	Remove(ctx context.Context, userID string) (int, error)
}

// Deps зависимости маршрутов.
type Deps struct {
	Documents DocumentService
	Uploads   upload.Service
	DB        health.Pinger
	Registry  *prometheus.Registry
}

// RegisterRoutes регистрирует маршруты сервера.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, deps Deps) {
	metrics := middlewarectx.NewMetrics(deps.Registry)

	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit))
		r.Use(middlewarectx.BodyLimit(cfg.MaxBodyBytes))

		r.Get("/sync/{userId}", fetch.New(logger, deps.Documents).ServeHTTP)
		r.Post("/sync", push.New(logger, deps.Documents).ServeHTTP)
		r.Delete("/sync/{userId}", remove.New(logger, deps.Documents).ServeHTTP)
		r.Post("/upload", upload.New(logger, deps.Uploads).ServeHTTP)
	})

	r.Get("/health", health.New(logger, deps.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
