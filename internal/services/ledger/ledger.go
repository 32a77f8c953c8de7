// Package ledger сервис расходов, доходов и заметок по месяцам.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

var (
	// ErrRecordNotFound запись с таким id не найдена.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidAmount сумма должна быть положительной.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidMonth номер месяца вне 0–11.
	ErrInvalidMonth = errors.New("month must be in range 0-11")
)

// Store источник и приемник снимка пользователя.
type Store interface {
	Current(identity string) (models.Snapshot, error)
	Mutate(ctx context.Context, identity string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error)
}

// Service операции над расходами, доходами и заметками.
type Service struct {
	store    Store
	validate *validator.Validate
	newID    func() string
	log      *slog.Logger
}

// New создает Service.
func New(store Store, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		newID:    uuid.NewString,
		log:      log,
	}
}

// AddExpense добавляет расход в корзину месяца его даты и возвращает сохраненную запись.
func (s *Service) AddExpense(ctx context.Context, identity string, e models.Expense) (models.Expense, error) {
	const op = "ledger.AddExpense"
	if err := s.prepare(&e.ID, &e.Year, e.Date, e.Amount, e); err != nil {
		return models.Expense{}, fmt.Errorf("%s: %w", op, err)
	}
	idx, _ := month.Index(e.Date)
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceExpenses}, func(snap *models.Snapshot) error {
		snap.Expenses[idx] = append(snap.Expenses[idx], e)
		return nil
	})
	if err != nil {
		return models.Expense{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("expense added", slog.String("id", e.ID), slog.Int("month", idx))
	return e, nil
}

// UpdateExpense заменяет расход с тем же id. Если месяц даты изменился,
// запись переносится в другую корзину.
func (s *Service) UpdateExpense(ctx context.Context, identity string, e models.Expense) (models.Expense, error) {
	const op = "ledger.UpdateExpense"
	if e.ID == "" {
		return models.Expense{}, fmt.Errorf("%s: %w", op, ErrRecordNotFound)
	}
	e.Year = 0
	if err := s.prepare(&e.ID, &e.Year, e.Date, e.Amount, e); err != nil {
		return models.Expense{}, fmt.Errorf("%s: %w", op, err)
	}
	idx, _ := month.Index(e.Date)
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceExpenses}, func(snap *models.Snapshot) error {
		return replace(&snap.Expenses, idx, e, func(x models.Expense) string { return x.ID })
	})
	if err != nil {
		return models.Expense{}, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// DeleteExpense удаляет расход по id.
func (s *Service) DeleteExpense(ctx context.Context, identity, id string) error {
	const op = "ledger.DeleteExpense"
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceExpenses}, func(snap *models.Snapshot) error {
		return remove(&snap.Expenses, id, func(x models.Expense) string { return x.ID })
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddIncome добавляет доход.
func (s *Service) AddIncome(ctx context.Context, identity string, in models.Income) (models.Income, error) {
	const op = "ledger.AddIncome"
	if err := s.prepare(&in.ID, &in.Year, in.Date, in.Amount, in); err != nil {
		return models.Income{}, fmt.Errorf("%s: %w", op, err)
	}
	idx, _ := month.Index(in.Date)
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceIncome}, func(snap *models.Snapshot) error {
		snap.Income[idx] = append(snap.Income[idx], in)
		return nil
	})
	if err != nil {
		return models.Income{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("income added", slog.String("id", in.ID), slog.Int("month", idx))
	return in, nil
}

// UpdateIncome заменяет доход с тем же id.
func (s *Service) UpdateIncome(ctx context.Context, identity string, in models.Income) (models.Income, error) {
	const op = "ledger.UpdateIncome"
	if in.ID == "" {
		return models.Income{}, fmt.Errorf("%s: %w", op, ErrRecordNotFound)
	}
	in.Year = 0
	if err := s.prepare(&in.ID, &in.Year, in.Date, in.Amount, in); err != nil {
		return models.Income{}, fmt.Errorf("%s: %w", op, err)
	}
	idx, _ := month.Index(in.Date)
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceIncome}, func(snap *models.Snapshot) error {
		return replace(&snap.Income, idx, in, func(x models.Income) string { return x.ID })
	})
	if err != nil {
		return models.Income{}, fmt.Errorf("%s: %w", op, err)
	}
	return in, nil
}

// DeleteIncome удаляет доход по id.
func (s *Service) DeleteIncome(ctx context.Context, identity, id string) error {
	const op = "ledger.DeleteIncome"
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceIncome}, func(snap *models.Snapshot) error {
		return remove(&snap.Income, id, func(x models.Income) string { return x.ID })
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetNote сохраняет заметку месяца. Пустая строка удаляет заметку.
func (s *Service) SetNote(ctx context.Context, identity string, monthIdx int, content string) error {
	const op = "ledger.SetNote"
	if monthIdx < 0 || monthIdx >= models.MonthsInYear {
		return fmt.Errorf("%s: %w", op, ErrInvalidMonth)
	}
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceNotes}, func(snap *models.Snapshot) error {
		snap.Notes[monthIdx] = content
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// prepare проверяет запись, назначает id и год.
func (s *Service) prepare(id *string, year *int, date string, amount decimal.Decimal, record any) error {
	if err := s.validate.Struct(record); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if *id == "" {
		*id = s.newID()
	}
	if *year == 0 {
		y, _ := month.Year(date)
		*year = y
	}
	return nil
}

func replace[T any](buckets *[models.MonthsInYear][]T, idx int, item T, idOf func(T) string) error {
	id := idOf(item)
	for m := range models.MonthsInYear {
		for i, cur := range buckets[m] {
			if idOf(cur) != id {
				continue
			}
			if m == idx {
				buckets[m][i] = item
				return nil
			}
			buckets[m] = append(buckets[m][:i:i], buckets[m][i+1:]...)
			buckets[idx] = append(buckets[idx], item)
			return nil
		}
	}
	return ErrRecordNotFound
}

func remove[T any](buckets *[models.MonthsInYear][]T, id string, idOf func(T) string) error {
	for m := range models.MonthsInYear {
		for i, cur := range buckets[m] {
			if idOf(cur) == id {
				buckets[m] = append(buckets[m][:i:i], buckets[m][i+1:]...)
				return nil
			}
		}
	}
	return ErrRecordNotFound
}
