// Package sl вспомогательные атрибуты и логгеры для slog.
package sl

import "log/slog"

// Err атрибут "error" с текстом ошибки. Для nil значение пустое.
//
//	log.Error("failed to push document", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Discard логгер, который ничего не пишет.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
