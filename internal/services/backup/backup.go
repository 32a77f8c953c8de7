// Package backup выгрузка снимка в JSON-файл резервной копии и загрузка из него.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// Version версия формата резервной копии.
const Version = "1.0"

// ErrUnsupportedVersion копия другой версии формата.
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// Store источник и приемник снимка пользователя.
type Store interface {
	Current(identity string) (models.Snapshot, error)
	Mutate(ctx context.Context, identity string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error)
}

// File содержимое файла резервной копии.
type File struct {
	Version    string          `json:"version"`
	ExportDate string          `json:"exportDate"`
	Data       models.Snapshot `json:"data"`
}

// Service резервное копирование.
type Service struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// New создает Service.
func New(store Store, log *slog.Logger) *Service {
	return &Service{store: store, now: time.Now, log: log}
}

// Export возвращает резервную копию снимка. Пароли открытым текстом не выгружаются.
func (s *Service) Export(identity string) ([]byte, error) {
	const op = "backup.Export"
	snap, err := s.store.Current(identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range snap.Users {
		snap.Users[i].Password = ""
	}
	out, err := json.MarshalIndent(File{
		Version:    Version,
		ExportDate: s.now().UTC().Format(time.RFC3339),
		Data:       snap,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Import заменяет снимок содержимым резервной копии и записывает все разделы.
func (s *Service) Import(ctx context.Context, identity string, raw []byte) (models.Snapshot, error) {
	const op = "backup.Import"
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return models.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	if f.Version != Version {
		return models.Snapshot{}, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedVersion, f.Version)
	}

	data := withDefaults(f.Data)
	data.BackfillIDs(uuid.NewString)
	for i := range data.Users {
		data.Users[i].Role = models.NormalizeRole(data.Users[i].Role)
	}

	snap, err := s.store.Mutate(ctx, identity, models.AllSlices, func(cur *models.Snapshot) error {
		cur.Assign(data, models.AllSlices...)
		return nil
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("backup imported", slog.String("export_date", f.ExportDate))
	return snap, nil
}

// withDefaults дополняет отсутствующие в копии списки значениями по умолчанию.
func withDefaults(data models.Snapshot) models.Snapshot {
	def := models.NewSnapshot()
	if data.Users == nil {
		data.Users = def.Users
	}
	if data.MaintenanceTypes == nil {
		data.MaintenanceTypes = def.MaintenanceTypes
	}
	if data.MaintenanceAreas == nil {
		data.MaintenanceAreas = def.MaintenanceAreas
	}
	if data.Settings.Categories == nil {
		data.Settings.Categories = def.Settings.Categories
	}
	if data.Settings.Suppliers == nil {
		data.Settings.Suppliers = def.Settings.Suppliers
	}
	if data.Settings.PaymentMethods == nil {
		data.Settings.PaymentMethods = def.Settings.PaymentMethods
	}
	if data.Settings.Years == nil {
		data.Settings.Years = def.Settings.Years
	}
	data.Normalize()
	return data
}
