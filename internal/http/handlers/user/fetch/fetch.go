// Package fetch реализует HTTP-обработчик получения учётной записи по UID.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-account-service/internal/http/response"
	"github.com/magabrotheeeer/user-account-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-account-service/internal/models"
	services "github.com/magabrotheeeer/user-account-service/internal/services/user"
)

// Service описывает интерфейс бизнес-логики чтения учётной записи.
type Service interface {
	Get(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает запросы на получение учётной записи по UID.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получение учётной записи
// @Description Возвращает запись пользователя по UID.
// @Tags User
// @Produce  json
// @Param id path string true "UID учётной записи"
// @Success 201 {object} response.Response "Запись пользователя"
// @Failure 404 {object} response.ErrorResponse "Учётная запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /user/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.fetch"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "id")

	user, err := h.service.Get(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to fetch user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch user"))
		return
	}

	log.Info("user fetched", slog.String("uid", user.UID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(user))
}
