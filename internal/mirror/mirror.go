// Package mirror локальная копия снимка на устройстве.
//
// Зеркало обновляется после каждой успешной загрузки или записи и читается
// только как запасной вариант, когда сервер недоступен. Каждый раздел снимка
// хранится под своим ключом, поэтому модуль может обновить один раздел,
// не сериализуя весь снимок.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// ErrCorruptSlice сохраненный раздел не разбирается как JSON.
var ErrCorruptSlice = errors.New("corrupt mirror slice")

const keyUpdatedAt = "updatedAt"

type maintenancePayload struct {
	Records []models.Maintenance `json:"records"`
	Types   []string             `json:"types"`
	Areas   []string             `json:"areas"`
}

// Mirror зеркало снимков поверх Store.
type Mirror struct {
	store Store
	log   *slog.Logger
}

// New создает зеркало.
func New(store Store, log *slog.Logger) *Mirror {
	return &Mirror{store: store, log: log}
}

// Write сохраняет перечисленные разделы снимка (все, если parts пуст).
func (m *Mirror) Write(ctx context.Context, identity string, s models.Snapshot, parts ...models.Slice) error {
	const op = "mirror.Write"
	if len(parts) == 0 {
		parts = models.AllSlices
	}
	for _, part := range parts {
		payload, err := encodeSlice(s, part)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", op, part, err)
		}
		if err := m.store.Set(ctx, identity, string(part), payload); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := m.store.Set(ctx, identity, keyUpdatedAt, []byte(strconv.FormatInt(s.UpdatedAt, 10))); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Read заполняет раздел part снимка s из зеркала. Возвращает false, если
// раздел не сохранялся. Поврежденный раздел удаляется и заменяется значением
// по умолчанию.
func (m *Mirror) Read(ctx context.Context, identity string, part models.Slice, s *models.Snapshot) (bool, error) {
	const op = "mirror.Read"
	raw, err := m.store.Get(ctx, identity, string(part))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := decodeSlice(raw, part, s); err != nil {
		m.log.Warn("discarding corrupt mirror slice",
			slog.String("identity", identity),
			slog.String("slice", string(part)),
			sl.Err(fmt.Errorf("%w: %w", ErrCorruptSlice, err)),
		)
		resetSlice(s, part)
		if err := m.store.Delete(ctx, identity, string(part)); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}
	s.Normalize()
	return true, nil
}

// ReadSnapshot собирает снимок из всех сохраненных разделов. found равен
// false, если для identity не сохранено ни одного раздела.
func (m *Mirror) ReadSnapshot(ctx context.Context, identity string) (models.Snapshot, bool, error) {
	const op = "mirror.ReadSnapshot"
	s := models.NewSnapshot()
	found := false
	for _, part := range models.AllSlices {
		ok, err := m.Read(ctx, identity, part, &s)
		if err != nil {
			return models.NewSnapshot(), false, fmt.Errorf("%s: %w", op, err)
		}
		found = found || ok
	}
	if raw, err := m.store.Get(ctx, identity, keyUpdatedAt); err == nil && raw != nil {
		if ts, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			s.UpdatedAt = ts
		}
	}
	return s, found, nil
}

// Clear удаляет все разделы identity.
func (m *Mirror) Clear(ctx context.Context, identity string) error {
	const op = "mirror.Clear"
	if err := m.store.Clear(ctx, identity); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func encodeSlice(s models.Snapshot, part models.Slice) ([]byte, error) {
	switch part {
	case models.SliceExpenses:
		return json.Marshal(s.Expenses)
	case models.SliceIncome:
		return json.Marshal(s.Income)
	case models.SliceNotes:
		return json.Marshal(s.Notes)
	case models.SliceFleet:
		return json.Marshal(s.Fleet)
	case models.SliceUsers:
		return json.Marshal(s.Users)
	case models.SliceMaintenance:
		return json.Marshal(maintenancePayload{Records: s.Maintenance, Types: s.MaintenanceTypes, Areas: s.MaintenanceAreas})
	case models.SliceSettings:
		return json.Marshal(s.Settings)
	}
	return nil, fmt.Errorf("unknown slice %q", part)
}

func decodeSlice(raw []byte, part models.Slice, s *models.Snapshot) error {
	switch part {
	case models.SliceExpenses:
		var v [models.MonthsInYear][]models.Expense
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Expenses = v
	case models.SliceIncome:
		var v [models.MonthsInYear][]models.Income
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Income = v
	case models.SliceNotes:
		var v [models.MonthsInYear]string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Notes = v
	case models.SliceFleet:
		var v models.Fleet
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Fleet = v
	case models.SliceUsers:
		var v []models.SystemUser
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Users = v
	case models.SliceMaintenance:
		var v maintenancePayload
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Maintenance, s.MaintenanceTypes, s.MaintenanceAreas = v.Records, v.Types, v.Areas
	case models.SliceSettings:
		var v models.Settings
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		s.Settings = v
	default:
		return fmt.Errorf("unknown slice %q", part)
	}
	return nil
}

func resetSlice(s *models.Snapshot, part models.Slice) {
	def := models.NewSnapshot()
	switch part {
	case models.SliceExpenses:
		s.Expenses = def.Expenses
	case models.SliceIncome:
		s.Income = def.Income
	case models.SliceNotes:
		s.Notes = def.Notes
	case models.SliceFleet:
		s.Fleet = def.Fleet
	case models.SliceUsers:
		s.Users = def.Users
	case models.SliceMaintenance:
		s.Maintenance, s.MaintenanceTypes, s.MaintenanceAreas = def.Maintenance, def.MaintenanceTypes, def.MaintenanceAreas
	case models.SliceSettings:
		s.Settings = def.Settings
	}
}
