// Package push обработчик POST /api/sync: частичная запись документа.
// Отсутствующие поля не меняются, пустой массив очищает поле.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/household-ledger/internal/http/response"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/services/document"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service запись документа.
type Service interface {
	Push(ctx context.Context, doc wire.RawDocument) (int64, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP
// @Summary Записать документ пользователя
// @Description Частичная запись: поля, которых нет в теле, не меняются
// @Tags sync
// @Accept json
// @Produce json
// @Param document body wire.RawDocument true "Документ с userId и изменяемыми полями"
// @Success 200 {object} response.Response "Время записи updatedAt"
// @Failure 400 {object} response.Response "Некорректное тело запроса"
// @Failure 413 {object} response.Response "Слишком большое тело запроса"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /sync [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.document.push"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req wire.RawDocument
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("request body too large"))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	updatedAt, err := h.service.Push(r.Context(), req)
	if errors.Is(err, document.ErrValidation) {
		log.Error("document rejected", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(errors.Unwrap(err).Error()))
		return
	}
	if err != nil {
		log.Error("failed to save document", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save document"))
		return
	}

	log.Info("document saved", slog.String("user_id", req.UserID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"updatedAt": updatedAt,
	}))
}
