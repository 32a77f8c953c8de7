// Package remove обработчик DELETE /api/sync/{userId}.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/household-ledger/internal/http/response"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service удаление документа.
type Service interface {
	Remove(ctx context.Context, userID string) (int, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP
// @Summary Удалить документ пользователя
// @Tags sync
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} response.Deleted "Число удаленных документов"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /sync/{userId} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		log.Error("empty user id in url")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("user id is required"))
		return
	}

	n, err := h.service.Remove(r.Context(), userID)
	if err != nil {
		log.Error("failed to remove document", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove document"))
		return
	}

	log.Info("document removed", slog.String("user_id", userID), slog.Int("deleted", n))
	render.JSON(w, r, response.Deleted{Status: response.StatusOK, Deleted: n})
}
