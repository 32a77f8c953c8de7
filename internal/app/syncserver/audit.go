package syncserver

import (
	"encoding/json"
	"log/slog"

	"github.com/magabrotheeeer/household-ledger/internal/rabbitmq"
)

// auditHandler пишет события документов в лог. Нечитаемое событие
// подтверждается, чтобы не зацикливать очередь.
func auditHandler(log *slog.Logger) func([]byte) error {
	return func(body []byte) error {
		var ev rabbitmq.DocumentEvent
		if err := json.Unmarshal(body, &ev); err != nil || ev.UserID == "" {
			log.Warn("skip malformed document event", slog.String("body", string(body)))
			return nil
		}
		log.Info("document event",
			slog.String("user_id", ev.UserID),
			slog.Any("fields", ev.Fields),
			slog.Time("at", ev.At),
		)
		return nil
	}
}
