package syncserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/household-ledger/internal/cache"
	"github.com/magabrotheeeer/household-ledger/internal/config"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/migrations"
	"github.com/magabrotheeeer/household-ledger/internal/rabbitmq"
	"github.com/magabrotheeeer/household-ledger/internal/services/document"
	uploadservice "github.com/magabrotheeeer/household-ledger/internal/services/upload"
	"github.com/magabrotheeeer/household-ledger/internal/storage/objectstore"
	"github.com/magabrotheeeer/household-ledger/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	amqp   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища, применяет миграции и собирает HTTP-сервер.
// Без настроенного RabbitMQ события не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "syncserver.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var opts []document.Option
	if cfg.RabbitMQ.URL != "" {
		if err := app.connectBroker(ctx, cfg.RabbitMQ); err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, document.WithPublisher(rabbitmq.NewPublisher(app.ch, cfg.Exchange)))
	} else {
		logger.Warn("rabbitmq url is empty, document events disabled")
	}

	store, err := objectstore.New(ctx, cfg.ObjectStorage)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Deps{
		Documents: document.New(db, cacheRedis, cfg.DocumentTTL, logger, opts...),
		Uploads:   uploadservice.New(store, logger),
		DB:        db,
		Registry:  registry,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) connectBroker(ctx context.Context, cfg config.RabbitMQ) error {
	conn, err := rabbitmq.Connect(cfg.URL, cfg.ConnectRetries, 2*time.Second)
	if err != nil {
		return err
	}
	a.amqp = conn

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.DocumentQueues())
	if err != nil {
		return err
	}
	a.ch = ch

	return rabbitmq.ConsumerMessage(ctx, ch, rabbitmq.AuditQueue, a.logger, auditHandler(a.logger))
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
