// Package upload сохраняет вложения пользователей в объектное хранилище.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

// ErrEmptyFile файл без содержимого.
var ErrEmptyFile = errors.New("file is empty")

// ObjectStore хранилище объектов.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Service struct {
	store ObjectStore
	newID func() string
	log   *slog.Logger
}

func New(store ObjectStore, log *slog.Logger) *Service {
	return &Service{
		store: store,
		newID: uuid.NewString,
		log:   log,
	}
}

// Upload декодирует файл и кладет его под ключ users/<userId>/<uuid>-<имя>.
func (s *Service) Upload(ctx context.Context, req wire.UploadRequest) (*wire.UploadResponse, error) {
	const op = "upload.Upload"
	data, ctype, err := wire.DecodeFile(req.File, req.Filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyFile)
	}

	key := fmt.Sprintf("users/%s/%s-%s", safeName(req.UserID), s.newID(), safeName(path.Base(req.Filename)))
	url, err := s.store.Put(ctx, key, data, ctype)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("file uploaded", slog.String("key", key), slog.Int("size", len(data)))
	return &wire.UploadResponse{Success: true, URL: url, PublicID: key}, nil
}

func safeName(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	return out
}
