package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// LegacyScope scope общих ключей устройства, оставшихся от версии без сервера.
const LegacyScope = ""

const (
	legacyFleetKey     = "fleetData"
	legacyTimestampKey = "syncTimestamp"
)

var legacyMonthKey = regexp.MustCompile(`^(expenses|income|notes)_([0-9]|1[01])$`)

// IsLegacyKey сообщает, относится ли ключ к старой помесячной раскладке.
func IsLegacyKey(key string) bool {
	return legacyMonthKey.MatchString(key) || key == legacyFleetKey || key == legacyTimestampKey
}

// ImportLegacy переносит дамп старого локального хранилища (ключ -> значение)
// в общий scope устройства. Возвращает число перенесенных ключей.
func (m *Mirror) ImportLegacy(ctx context.Context, dump map[string]string) (int, error) {
	const op = "mirror.ImportLegacy"
	n := 0
	for key, value := range dump {
		if !IsLegacyKey(key) {
			continue
		}
		if err := m.store.Set(ctx, LegacyScope, key, []byte(value)); err != nil {
			return n, fmt.Errorf("%s: %w", op, err)
		}
		n++
	}
	return n, nil
}

// ReadLegacy собирает снимок из старой раскладки expenses_<n>, income_<n>,
// notes_<n>, fleetData. found равен false, если таких ключей нет.
// Год записи восстанавливается из даты.
func (m *Mirror) ReadLegacy(ctx context.Context) (models.Snapshot, bool, error) {
	const op = "mirror.ReadLegacy"
	s := models.NewSnapshot()

	kv, err := m.store.List(ctx, LegacyScope)
	if err != nil {
		return s, false, fmt.Errorf("%s: %w", op, err)
	}

	found := false
	for key, raw := range kv {
		if !IsLegacyKey(key) {
			continue
		}
		if err := applyLegacy(&s, key, raw); err != nil {
			m.log.Warn("discarding corrupt legacy key", slog.String("key", key),
				sl.Err(fmt.Errorf("%w: %w", ErrCorruptSlice, err)))
			if err := m.store.Delete(ctx, LegacyScope, key); err != nil {
				return s, false, fmt.Errorf("%s: %w", op, err)
			}
			continue
		}
		if key != legacyTimestampKey {
			found = true
		}
	}
	s.Normalize()
	return s, found && s.HasRecords(), nil
}

// ClearLegacy удаляет старую раскладку после того, как пользователь выбрал,
// что с ней делать.
func (m *Mirror) ClearLegacy(ctx context.Context) error {
	const op = "mirror.ClearLegacy"
	kv, err := m.store.List(ctx, LegacyScope)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for key := range kv {
		if !IsLegacyKey(key) {
			continue
		}
		if err := m.store.Delete(ctx, LegacyScope, key); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func applyLegacy(s *models.Snapshot, key string, raw []byte) error {
	switch key {
	case legacyFleetKey:
		var f models.Fleet
		if err := json.Unmarshal(raw, &f); err != nil {
			return err
		}
		s.Fleet = f
		return nil
	case legacyTimestampKey:
		ts, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			return err
		}
		s.UpdatedAt = ts
		return nil
	}

	match := legacyMonthKey.FindStringSubmatch(key)
	idx, _ := strconv.Atoi(match[2])
	switch match[1] {
	case "expenses":
		var items []models.Expense
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		for i := range items {
			if y, ok := month.Year(items[i].Date); ok && items[i].Year == 0 {
				items[i].Year = y
			}
		}
		s.Expenses[idx] = items
	case "income":
		var items []models.Income
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		for i := range items {
			if y, ok := month.Year(items[i].Date); ok && items[i].Year == 0 {
				items[i].Year = y
			}
		}
		s.Income[idx] = items
	case "notes":
		var note string
		if err := json.Unmarshal(raw, &note); err != nil {
			note = string(raw)
		}
		s.Notes[idx] = note
	}
	return nil
}
