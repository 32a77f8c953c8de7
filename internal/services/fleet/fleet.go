// Package fleet сервис автопарка: карточки автомобилей, история пробега и
// напоминания о ревизиях.
package fleet

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

var (
	ErrVehicleExists   = errors.New("vehicle with this plate already exists")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrReadingNotFound = errors.New("odometer reading not found")
)

// AlertWindowDays за сколько дней до даты появляется напоминание.
const AlertWindowDays = 30

// Store источник и приемник снимка пользователя.
type Store interface {
	Current(identity string) (models.Snapshot, error)
	Mutate(ctx context.Context, identity string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error)
}

// Service операции над автопарком.
type Service struct {
	store    Store
	validate *validator.Validate
	now      func() time.Time
	log      *slog.Logger
}

// Option настройка сервиса.
type Option func(*Service)

// WithClock подменяет часы.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создает Service.
func New(store Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, validate: validator.New(), now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Vehicles список автомобилей.
func (s *Service) Vehicles(identity string) ([]models.Vehicle, error) {
	snap, err := s.store.Current(identity)
	if err != nil {
		return nil, fmt.Errorf("fleet.Vehicles: %w", err)
	}
	return snap.Fleet.Vehicles, nil
}

// AddVehicle добавляет автомобиль. Номер должен быть уникальным.
func (s *Service) AddVehicle(ctx context.Context, identity string, v models.Vehicle) error {
	const op = "fleet.AddVehicle"
	v.Plate = NormalizePlate(v.Plate)
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if v.KmHistory == nil {
		v.KmHistory = []models.OdometerReading{}
	}
	sortHistory(&v)

	err := s.mutate(ctx, identity, func(f *models.Fleet) error {
		if find(f, v.Plate) >= 0 {
			return ErrVehicleExists
		}
		f.Vehicles = append(f.Vehicles, v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("vehicle added", slog.String("plate", v.Plate))
	return nil
}

// UpdateVehicle заменяет карточку автомобиля с номером plate. История пробега
// сохраняется, если в v она не передана.
func (s *Service) UpdateVehicle(ctx context.Context, identity, plate string, v models.Vehicle) error {
	const op = "fleet.UpdateVehicle"
	plate = NormalizePlate(plate)
	v.Plate = NormalizePlate(v.Plate)
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.mutate(ctx, identity, func(f *models.Fleet) error {
		i := find(f, plate)
		if i < 0 {
			return ErrVehicleNotFound
		}
		if v.Plate != plate && find(f, v.Plate) >= 0 {
			return ErrVehicleExists
		}
		if v.KmHistory == nil {
			v.KmHistory = f.Vehicles[i].KmHistory
		}
		sortHistory(&v)
		f.Vehicles[i] = v
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveVehicle удаляет автомобиль.
func (s *Service) RemoveVehicle(ctx context.Context, identity, plate string) error {
	const op = "fleet.RemoveVehicle"
	plate = NormalizePlate(plate)
	err := s.mutate(ctx, identity, func(f *models.Fleet) error {
		i := find(f, plate)
		if i < 0 {
			return ErrVehicleNotFound
		}
		f.Vehicles = slices.Delete(f.Vehicles, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddReading добавляет запись пробега. История хранится от новых к старым,
// текущий пробег равен самой новой записи.
func (s *Service) AddReading(ctx context.Context, identity, plate string, r models.OdometerReading) error {
	const op = "fleet.AddReading"
	plate = NormalizePlate(plate)
	if err := s.validate.Struct(r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err := s.mutate(ctx, identity, func(f *models.Fleet) error {
		i := find(f, plate)
		if i < 0 {
			return ErrVehicleNotFound
		}
		v := &f.Vehicles[i]
		v.KmHistory = append(v.KmHistory, r)
		sortHistory(v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveReading удаляет запись пробега с датой date и пробегом km.
func (s *Service) RemoveReading(ctx context.Context, identity, plate, date, km string) error {
	const op = "fleet.RemoveReading"
	plate = NormalizePlate(plate)
	err := s.mutate(ctx, identity, func(f *models.Fleet) error {
		i := find(f, plate)
		if i < 0 {
			return ErrVehicleNotFound
		}
		v := &f.Vehicles[i]
		j := slices.IndexFunc(v.KmHistory, func(r models.OdometerReading) bool {
			return r.Date == date && r.Km == km
		})
		if j < 0 {
			return ErrReadingNotFound
		}
		v.KmHistory = slices.Delete(v.KmHistory, j, j+1)
		sortHistory(v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// mutate применяет fn к автопарку и проставляет дату изменения.
func (s *Service) mutate(ctx context.Context, identity string, fn func(*models.Fleet) error) error {
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceFleet}, func(snap *models.Snapshot) error {
		if err := fn(&snap.Fleet); err != nil {
			return err
		}
		snap.Fleet.UpdateDate = month.FormatBR(s.now())
		return nil
	})
	return err
}

func find(f *models.Fleet, plate string) int {
	return slices.IndexFunc(f.Vehicles, func(v models.Vehicle) bool {
		return NormalizePlate(v.Plate) == plate
	})
}

// NormalizePlate приводит номер к виду для сравнения: верхний регистр без дефисов.
func NormalizePlate(p string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p), "-", ""))
}

// sortHistory упорядочивает историю от новых к старым и обновляет текущий пробег.
func sortHistory(v *models.Vehicle) {
	slices.SortStableFunc(v.KmHistory, func(a, b models.OdometerReading) int {
		return cmp.Compare(b.Date, a.Date)
	})
	if len(v.KmHistory) > 0 {
		v.CurrentKm = v.KmHistory[0].Km
	}
}
