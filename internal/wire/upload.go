package wire

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrInvalidFile содержимое файла не является base64 или data URL.
var ErrInvalidFile = errors.New("file is not valid base64 or data URL")

// UploadRequest тело POST /api/upload. File содержит base64 или data URL.
type UploadRequest struct {
	File     string `json:"file" validate:"required"`
	Filename string `json:"filename" validate:"required"`
	UserID   string `json:"userId" validate:"required"`
}

// UploadResponse ответ на загрузку файла.
type UploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// EncodeDataURL кодирует содержимое файла в data URL. Тип определяется по
// расширению имени.
func EncodeDataURL(filename string, data []byte) string {
	return "data:" + contentType(filename) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeFile разбирает поле file: data URL или голый base64. Возвращает
// содержимое и тип; для голого base64 тип определяется по имени файла.
func DecodeFile(file, filename string) ([]byte, string, error) {
	const op = "wire.DecodeFile"
	ctype := contentType(filename)
	payload := strings.TrimSpace(file)

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidFile)
		}
		if t := strings.TrimSuffix(meta, ";base64"); t != "" {
			ctype = t
		}
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w: %w", op, ErrInvalidFile, err)
	}
	return data, ctype, nil
}

func contentType(filename string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	return "application/octet-stream"
}
