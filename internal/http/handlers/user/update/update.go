// Package update реализует HTTP-обработчик частичного обновления учётной записи.
//
// Обработчик извлекает UID из URL-параметров, сверяет его с UID вызывающего
// из контекста и делегирует применение изменений бизнес-логике. При смене
// email устанавливается обновлённый токен сессии с ограниченным сроком жизни.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-account-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/user-account-service/internal/http/response"
	"github.com/magabrotheeeer/user-account-service/internal/lib/sl"
	"github.com/magabrotheeeer/user-account-service/internal/models"
	services "github.com/magabrotheeeer/user-account-service/internal/services/user"
)

// refreshedTokenMaxAge — срок жизни cookie с обновлённым токеном.
const refreshedTokenMaxAge = 24 * time.Hour

// Request — необязательные новые значения полей учётной записи.
// CurrentPassword обязателен только при смене пароля.
type Request struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	CurrentPassword string `json:"currentPassword"`
}

// Service описывает интерфейс бизнес-логики обновления учётной записи.
type Service interface {
	Update(ctx context.Context, callerUID, targetUID string, req services.UpdateRequest) (*models.User, string, error)
}

// Handler обрабатывает HTTP-запросы на обновление учётной записи.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler с указанными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обновление учётной записи
// @Description Применяет частичное обновление полей. Менять запись может только её владелец.
// @Tags User
// @Accept  json
// @Produce  json
// @Param id path string true "UID учётной записи"
// @Param request body Request true "Новые значения полей"
// @Success 201 {object} response.Response "Обновлённая запись без хэша пароля"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или нет изменений"
// @Failure 401 {object} response.ErrorResponse "Неверный текущий пароль"
// @Failure 403 {object} response.ErrorResponse "Запись принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Учётная запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /update/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	targetUID := chi.URLParam(r, "id")
	callerUID := middlewarectx.GetUserUID(r.Context())

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	updated, token, err := h.service.Update(r.Context(), callerUID, targetUID, services.UpdateRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		h.writeError(w, r, log, err)
		return
	}

	if token != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     middlewarectx.TokenCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			MaxAge:   int(refreshedTokenMaxAge.Seconds()),
		})
	}

	log.Info("user updated", slog.String("uid", targetUID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "user updated successfully",
		"user":    updated.Redacted(),
	}))
}

// writeError переводит ошибку бизнес-уровня в HTTP-ответ.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Error("failed to update user", sl.Err(err))

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
	case errors.Is(err, services.ErrNotOwner):
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("not authorized to update this user"))
	case errors.Is(err, services.ErrWrongPassword):
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("current password is incorrect"))
	case errors.Is(err, services.ErrUsernameTooShort),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCurrentPasswordRequired),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrNoUpdates):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update user"))
	}
}
