// Package health реализует обработчик проверки живости сервиса.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/user-account-service/internal/http/response"
	"github.com/magabrotheeeer/user-account-service/internal/lib/sl"
)

// ReadyFunc проверяет готовность зависимостей сервиса.
type ReadyFunc func() error

// Handler отвечает на запросы проверки живости.
type Handler struct {
	log   *slog.Logger
	ready ReadyFunc
}

// New создает новый Handler. ready может быть nil, тогда проверяется
// только живость процесса.
func New(log *slog.Logger, ready ReadyFunc) *Handler {
	return &Handler{
		log:   log,
		ready: ready,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			h.log.Error("service not ready", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("service not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
