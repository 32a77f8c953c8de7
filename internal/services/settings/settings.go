// Package settings сервис списков настроек: категории, поставщики, способы
// оплаты и годы, из которых выбираются значения при вводе записей.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/household-ledger/internal/models"
)

var (
	ErrDuplicateValue = errors.New("value already exists")
	ErrUnknownValue   = errors.New("value not found")
	ErrEmptyValue     = errors.New("value is empty")
	ErrInvalidYear    = errors.New("invalid year")
	ErrUnknownList    = errors.New("unknown settings list")
)

// List имя списка настроек.
type List string

const (
	Categories     List = "categories"
	Suppliers      List = "suppliers"
	PaymentMethods List = "payment-methods"
	Years          List = "years"
)

// Lists все списки в порядке показа.
var Lists = []List{Categories, Suppliers, PaymentMethods, Years}

// ParseList разбирает имя списка.
func ParseList(s string) (List, error) {
	l := List(s)
	if slices.Contains(Lists, l) {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownList, s)
}

// Store источник и приемник снимка пользователя.
type Store interface {
	Current(identity string) (models.Snapshot, error)
	Mutate(ctx context.Context, identity string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error)
}

// Service правка списков настроек.
type Service struct {
	store    Store
	validate *validator.Validate
	log      *slog.Logger
}

// New создает Service.
func New(store Store, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		log:      log,
	}
}

// Get возвращает все списки настроек.
func (s *Service) Get(identity string) (models.Settings, error) {
	const op = "settings.Get"

	snap, err := s.store.Current(identity)
	if err != nil {
		return models.Settings{}, fmt.Errorf("%s: %w", op, err)
	}
	return snap.Settings, nil
}

// Values возвращает значения одного списка строками.
func (s *Service) Values(identity string, list List) ([]string, error) {
	const op = "settings.Values"

	st, err := s.Get(identity)
	if err != nil {
		return nil, err
	}
	if list == Years {
		out := make([]string, 0, len(st.Years))
		for _, y := range st.Years {
			out = append(out, strconv.Itoa(y))
		}
		return out, nil
	}
	l, err := stringList(&st, list)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slices.Clone(*l), nil
}

// Add добавляет значение в список. Повторное значение отклоняется.
func (s *Service) Add(ctx context.Context, identity string, list List, value string) error {
	return s.edit(ctx, identity, "settings.Add", list, editAdd, "", value)
}

// Rename заменяет значение old на value, сохраняя его позицию.
func (s *Service) Rename(ctx context.Context, identity string, list List, old, value string) error {
	return s.edit(ctx, identity, "settings.Rename", list, editRename, old, value)
}

// Remove удаляет значение из списка.
func (s *Service) Remove(ctx context.Context, identity string, list List, value string) error {
	return s.edit(ctx, identity, "settings.Remove", list, editRemove, value, "")
}

type editKind int

const (
	editAdd editKind = iota
	editRename
	editRemove
)

func (s *Service) edit(ctx context.Context, identity, op string, list List, kind editKind, old, value string) error {
	old, value = strings.TrimSpace(old), strings.TrimSpace(value)
	if kind != editRemove {
		if err := s.validate.Var(value, "required"); err != nil {
			return fmt.Errorf("%s: %w", op, ErrEmptyValue)
		}
	}

	var fn func(*models.Snapshot) error
	if list == Years {
		oldYear, newYear, err := s.parseYears(kind, old, value)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		fn = func(snap *models.Snapshot) error {
			if err := apply(&snap.Settings.Years, kind, oldYear, newYear); err != nil {
				return err
			}
			slices.Sort(snap.Settings.Years)
			return nil
		}
	} else {
		fn = func(snap *models.Snapshot) error {
			l, err := stringList(&snap.Settings, list)
			if err != nil {
				return err
			}
			return apply(l, kind, old, value)
		}
	}

	if _, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceSettings}, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("settings updated", slog.String("op", op), slog.String("list", string(list)))
	return nil
}

func (s *Service) parseYears(kind editKind, old, value string) (int, int, error) {
	parse := func(v string) (int, error) {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidYear, v)
		}
		if err := s.validate.Var(y, "min=1900,max=2200"); err != nil {
			return 0, fmt.Errorf("%w: %d", ErrInvalidYear, y)
		}
		return y, nil
	}

	var oldYear, newYear int
	var err error
	if kind != editAdd {
		if oldYear, err = parse(old); err != nil {
			return 0, 0, err
		}
	}
	if kind != editRemove {
		if newYear, err = parse(value); err != nil {
			return 0, 0, err
		}
	}
	return oldYear, newYear, nil
}

func stringList(st *models.Settings, list List) (*[]string, error) {
	switch list {
	case Categories:
		return &st.Categories, nil
	case Suppliers:
		return &st.Suppliers, nil
	case PaymentMethods:
		return &st.PaymentMethods, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownList, list)
}

func apply[T comparable](l *[]T, kind editKind, old, value T) error {
	switch kind {
	case editAdd:
		if slices.Contains(*l, value) {
			return ErrDuplicateValue
		}
		*l = append(*l, value)
	case editRename:
		i := slices.Index(*l, old)
		if i < 0 {
			return ErrUnknownValue
		}
		if old == value {
			return nil
		}
		if slices.Contains(*l, value) {
			return ErrDuplicateValue
		}
		(*l)[i] = value
	case editRemove:
		i := slices.Index(*l, old)
		if i < 0 {
			return ErrUnknownValue
		}
		*l = slices.Delete(*l, i, i+1)
	}
	return nil
}
