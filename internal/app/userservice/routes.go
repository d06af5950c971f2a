// Package userservice предоставляет маршруты сервиса учётных записей.
package userservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/user-account-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/user-account-service/internal/http/handlers/user/fetch"
	"github.com/magabrotheeeer/user-account-service/internal/http/handlers/user/login"
	"github.com/magabrotheeeer/user-account-service/internal/http/handlers/user/remove"
	"github.com/magabrotheeeer/user-account-service/internal/http/handlers/user/signup"
	"github.com/magabrotheeeer/user-account-service/internal/http/handlers/user/update"
	"github.com/magabrotheeeer/user-account-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-account-service/internal/lib/jwt"
	services "github.com/magabrotheeeer/user-account-service/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, userService *services.UserService, jwtMaker jwt.Maker, ready health.ReadyFunc) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Открытые конечные точки
	r.Post("/signup", signup.New(logger, userService).ServeHTTP)
	r.Post("/login", login.New(logger, userService).ServeHTTP)
	r.Get("/user/{id}", fetch.New(logger, userService).ServeHTTP)
	r.Delete("/delete", remove.New(logger, userService).ServeHTTP)

	// Группа с проверкой токена сессии
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Patch("/update/{id}", update.New(logger, userService).ServeHTTP)
	})

	r.Get("/health", health.New(logger, ready).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
