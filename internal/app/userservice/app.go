// Package userservice собирает зависимости сервиса учётных записей
// и управляет жизненным циклом HTTP-сервера.
package userservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/user-account-service/internal/cache"
	"github.com/magabrotheeeer/user-account-service/internal/config"
	"github.com/magabrotheeeer/user-account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/user-account-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/user-account-service/internal/migrations"
	services "github.com/magabrotheeeer/user-account-service/internal/services/user"
	"github.com/magabrotheeeer/user-account-service/internal/storage/repository"

	_ "github.com/magabrotheeeer/user-account-service/docs"
)

// App объединяет HTTP-сервер и его зависимости.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
}

// New создаёт приложение: хранилище, миграции, кеш, брокер событий,
// бизнес-логику и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.RetriesRabbit, cfg.DelayRabbit)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetUserEventQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh, rabbitmq.UserEventsExchange)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	userService := services.NewUserService(db, cacheRedis, publisher, jwtMaker, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, userService, jwtMaker, func() error {
		return repository.CheckDatabaseReady(db)
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
// Соединения с брокером и базой закрываются на любом пути завершения.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

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
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// close освобождает соединения с брокером и базой данных.
func (a *App) close() {
	if a.rabbitConn != nil {
		_ = a.rabbitConn.Close()
	}
	if a.db != nil && a.db.DB != nil {
		_ = a.db.DB.Close()
	}
}
