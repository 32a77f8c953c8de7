// Package upload обработчик POST /api/upload: загрузка вложения в base64.
package upload

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
	uploadservice "github.com/magabrotheeeer/household-ledger/internal/services/upload"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Upload(ctx context.Context, req wire.UploadRequest) (*wire.UploadResponse, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP
// @Summary Загрузить вложение
// @Description Файл передается как base64 или data URL и сохраняется в объектном хранилище
// @Tags files
// @Accept json
// @Produce json
// @Param upload body wire.UploadRequest true "Файл, имя и пользователь"
// @Success 200 {object} wire.UploadResponse "Ссылка на файл"
// @Failure 400 {object} response.Response "Некорректное тело запроса"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.Response "Ошибка сервера"
// @Router /upload [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upload"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req wire.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("file too large"))
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

	res, err := h.service.Upload(r.Context(), req)
	if errors.Is(err, wire.ErrInvalidFile) || errors.Is(err, uploadservice.ErrEmptyFile) {
		log.Error("invalid file", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid file content"))
		return
	}
	if err != nil {
		log.Error("failed to upload file", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not upload file"))
		return
	}

	log.Info("file uploaded", slog.String("public_id", res.PublicID))
	render.JSON(w, r, res)
}
