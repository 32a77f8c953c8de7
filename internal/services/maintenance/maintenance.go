// Package maintenance сервис обслуживания дома: записи работ, повторения,
// напоминания, вложения и перенос стоимости в расходы.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/models"
	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

var (
	ErrNotFound       = errors.New("maintenance record not found")
	ErrInvalidPeriod  = errors.New("recurring maintenance needs a positive period")
	ErrDuplicateValue = errors.New("value already exists")
	ErrUnknownValue   = errors.New("value not found")
)

const (
	expenseCategory      = "Manutenção"
	expensePaymentMethod = "Conta Corrente"
)

// Store источник и приемник снимка пользователя.
type Store interface {
	Current(identity string) (models.Snapshot, error)
	Mutate(ctx context.Context, identity string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error)
}

// Uploader загрузчик вложений на сервер.
type Uploader interface {
	Upload(ctx context.Context, in wire.UploadRequest) (*wire.UploadResponse, error)
}

// Service операции над записями обслуживания.
type Service struct {
	store    Store
	uploader Uploader
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
	log      *slog.Logger
}

// Option настройка сервиса.
type Option func(*Service)

// WithClock подменяет часы.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New создает Service.
func New(store Store, uploader Uploader, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		uploader: uploader,
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List записи обслуживания в порядке хранения.
func (s *Service) List(identity string) ([]models.Maintenance, error) {
	snap, err := s.store.Current(identity)
	if err != nil {
		return nil, fmt.Errorf("maintenance.List: %w", err)
	}
	return snap.Maintenance, nil
}

// Create сохраняет новую запись. Для повторяющихся работ без следующей даты
// она вычисляется как дата + период. При LaunchExpense и положительной
// стоимости в расходы месяца даты добавляется запись.
func (s *Service) Create(ctx context.Context, identity string, m models.Maintenance) (models.Maintenance, error) {
	const op = "maintenance.Create"
	if err := s.prepare(&m); err != nil {
		return models.Maintenance{}, fmt.Errorf("%s: %w", op, err)
	}
	m.ID = s.newID()
	if m.Status == "" {
		m.Status = models.StatusPending
	}
	stamp := s.now().UTC().Format(time.RFC3339)
	m.CreatedAt, m.UpdatedAt = stamp, stamp

	parts := []models.Slice{models.SliceMaintenance}
	expense, launch := s.expenseFor(m)
	if launch {
		parts = append(parts, models.SliceExpenses)
	}

	_, err := s.store.Mutate(ctx, identity, parts, func(snap *models.Snapshot) error {
		snap.Maintenance = append(snap.Maintenance, m)
		if launch {
			idx, _ := month.Index(expense.Date)
			snap.Expenses[idx] = append(snap.Expenses[idx], expense)
		}
		return nil
	})
	if err != nil {
		return models.Maintenance{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("maintenance created", slog.String("id", m.ID), slog.Bool("expense", launch))
	return m, nil
}

// Update заменяет запись с тем же id, сохраняя дату создания.
func (s *Service) Update(ctx context.Context, identity string, m models.Maintenance) (models.Maintenance, error) {
	const op = "maintenance.Update"
	keepFiles := m.Files == nil
	if err := s.prepare(&m); err != nil {
		return models.Maintenance{}, fmt.Errorf("%s: %w", op, err)
	}
	m.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	var saved models.Maintenance
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceMaintenance}, func(snap *models.Snapshot) error {
		i := indexOf(snap.Maintenance, m.ID)
		if i < 0 {
			return ErrNotFound
		}
		m.CreatedAt = snap.Maintenance[i].CreatedAt
		if keepFiles {
			m.Files = snap.Maintenance[i].Files
		}
		if m.Status == "" {
			m.Status = snap.Maintenance[i].Status
		}
		snap.Maintenance[i] = m
		saved = m
		return nil
	})
	if err != nil {
		return models.Maintenance{}, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// Complete помечает работу выполненной. Для повторяющейся работы создается
// следующая запись на дату следующего выполнения.
func (s *Service) Complete(ctx context.Context, identity, id string) (*models.Maintenance, error) {
	const op = "maintenance.Complete"
	stamp := s.now().UTC().Format(time.RFC3339)

	var next *models.Maintenance
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceMaintenance}, func(snap *models.Snapshot) error {
		i := indexOf(snap.Maintenance, id)
		if i < 0 {
			return ErrNotFound
		}
		cur := &snap.Maintenance[i]
		cur.Status = models.StatusDone
		cur.UpdatedAt = stamp
		if !cur.Recurring || cur.PeriodDays <= 0 || cur.NextDate == "" {
			return nil
		}
		following, err := month.AddDays(cur.NextDate, cur.PeriodDays)
		if err != nil {
			return err
		}
		n := cur.Clone()
		n.ID = s.newID()
		n.Date = cur.NextDate
		n.NextDate = following
		n.Status = models.StatusPending
		n.Files = []models.File{}
		n.LaunchExpense = false
		n.CreatedAt, n.UpdatedAt = stamp, stamp
		snap.Maintenance = append(snap.Maintenance, n)
		next = &n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return next, nil
}

// Delete удаляет запись.
func (s *Service) Delete(ctx context.Context, identity, id string) error {
	const op = "maintenance.Delete"
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceMaintenance}, func(snap *models.Snapshot) error {
		i := indexOf(snap.Maintenance, id)
		if i < 0 {
			return ErrNotFound
		}
		snap.Maintenance = slices.Delete(snap.Maintenance, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AttachFile загружает файл на сервер и добавляет ссылку к записи.
func (s *Service) AttachFile(ctx context.Context, identity, id, filename string, data []byte) (models.File, error) {
	const op = "maintenance.AttachFile"

	snap, err := s.store.Current(identity)
	if err != nil {
		return models.File{}, fmt.Errorf("%s: %w", op, err)
	}
	if indexOf(snap.Maintenance, id) < 0 {
		return models.File{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	resp, err := s.uploader.Upload(ctx, wire.UploadRequest{
		File:     wire.EncodeDataURL(filename, data),
		Filename: filename,
		UserID:   identity,
	})
	if err != nil {
		return models.File{}, fmt.Errorf("%s: %w", op, err)
	}
	file := models.File{Name: filename, URL: resp.URL, PublicID: resp.PublicID}

	_, err = s.store.Mutate(ctx, identity, []models.Slice{models.SliceMaintenance}, func(snap *models.Snapshot) error {
		i := indexOf(snap.Maintenance, id)
		if i < 0 {
			return ErrNotFound
		}
		snap.Maintenance[i].Files = append(snap.Maintenance[i].Files, file)
		return nil
	})
	if err != nil {
		return models.File{}, fmt.Errorf("%s: %w", op, err)
	}
	return file, nil
}

func (s *Service) prepare(m *models.Maintenance) error {
	if err := s.validate.Struct(*m); err != nil {
		return err
	}
	if m.Recurring && m.PeriodDays <= 0 {
		return ErrInvalidPeriod
	}
	if m.Recurring && m.NextDate == "" && m.Date != "" {
		next, err := month.AddDays(m.Date, m.PeriodDays)
		if err != nil {
			return err
		}
		m.NextDate = next
	}
	if m.Files == nil {
		m.Files = []models.File{}
	}
	return nil
}

// expenseFor строит расход для записи с LaunchExpense.
func (s *Service) expenseFor(m models.Maintenance) (models.Expense, bool) {
	if !bool(m.LaunchExpense) || !m.Cost.IsPositive() {
		return models.Expense{}, false
	}
	date := m.Date
	if date == "" {
		date = month.Truncate(s.now()).Format(month.DateLayout)
	}
	supplier := m.Supplier
	if supplier == "" {
		supplier = m.Type
	}
	year, _ := month.Year(date)
	return models.Expense{
		ID:            s.newID(),
		Date:          date,
		Description:   fmt.Sprintf("Manutenção: %s - %s", m.Type, m.Area),
		Amount:        m.Cost,
		Category:      expenseCategory,
		Supplier:      supplier,
		PaymentMethod: expensePaymentMethod,
		Year:          year,
	}, true
}

func indexOf(items []models.Maintenance, id string) int {
	return slices.IndexFunc(items, func(m models.Maintenance) bool { return m.ID == id })
}
