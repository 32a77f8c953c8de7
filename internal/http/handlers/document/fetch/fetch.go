// Package fetch обработчик GET /api/sync/{userId}: возвращает документ пользователя.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/household-ledger/internal/http/response"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/services/document"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service чтение документа.
type Service interface {
	Fetch(ctx context.Context, userID string) (*wire.RawDocument, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP
// @Summary Получить документ пользователя
// @Tags sync
// @Produce json
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} wire.RawDocument "Документ"
// @Failure 404 {object} response.Response "Документ не найден"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /sync/{userId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.fetch"
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

	doc, err := h.service.Fetch(r.Context(), userID)
	if errors.Is(err, document.ErrNotFound) {
		log.Info("document not found", slog.String("user_id", userID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("document not found"))
		return
	}
	if err != nil {
		log.Error("failed to fetch document", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read document"))
		return
	}

	log.Debug("document fetched", slog.String("user_id", userID), slog.Int64("updated_at", doc.UpdatedAt))
	render.JSON(w, r, doc)
}
