package maintenance

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// AlertWindowDays за сколько дней до следующей даты появляется напоминание.
const AlertWindowDays = 30

// EffectiveStatus статус с учетом просрочки: незавершенная работа со
// следующей датой раньше today считается просроченной.
func EffectiveStatus(m models.Maintenance, today time.Time) models.MaintenanceStatus {
	if m.Status == models.StatusDone {
		return m.Status
	}
	if days, err := month.DaysUntil(m.NextDate, today); err == nil && days < 0 {
		return models.StatusOverdue
	}
	if m.Status == "" {
		return models.StatusPending
	}
	return m.Status
}

// Alert напоминание о работе.
type Alert struct {
	Record   models.Maintenance
	Status   models.MaintenanceStatus
	DaysLeft int
}

// Alerts незавершенные работы, у которых следующая дата прошла или наступит
// в пределах AlertWindowDays. Просроченные идут первыми.
func (s *Service) Alerts(identity string) ([]Alert, error) {
	snap, err := s.store.Current(identity)
	if err != nil {
		return nil, fmt.Errorf("maintenance.Alerts: %w", err)
	}
	today := s.now()

	var out []Alert
	for _, m := range snap.Maintenance {
		if m.Status == models.StatusDone {
			continue
		}
		days, err := month.DaysUntil(m.NextDate, today)
		if err != nil || days > AlertWindowDays {
			continue
		}
		out = append(out, Alert{Record: m, Status: EffectiveStatus(m, today), DaysLeft: days})
	}
	slices.SortStableFunc(out, func(a, b Alert) int { return a.DaysLeft - b.DaysLeft })
	return out, nil
}

// Dashboard сводка по обслуживанию.
type Dashboard struct {
	Total      int
	ByStatus   map[models.MaintenanceStatus]int
	Upcoming   int
	TotalCost  decimal.Decimal
	CostByArea map[string]decimal.Decimal
}

// Dashboard считает количество работ по статусам и расходы.
func (s *Service) Dashboard(identity string) (Dashboard, error) {
	snap, err := s.store.Current(identity)
	if err != nil {
		return Dashboard{}, fmt.Errorf("maintenance.Dashboard: %w", err)
	}
	today := s.now()

	d := Dashboard{
		Total:      len(snap.Maintenance),
		ByStatus:   map[models.MaintenanceStatus]int{},
		CostByArea: map[string]decimal.Decimal{},
	}
	for _, m := range snap.Maintenance {
		status := EffectiveStatus(m, today)
		d.ByStatus[status]++
		if status != models.StatusDone && status != models.StatusOverdue {
			if days, err := month.DaysUntil(m.NextDate, today); err == nil && days <= AlertWindowDays {
				d.Upcoming++
			}
		}
		d.TotalCost = d.TotalCost.Add(m.Cost)
		d.CostByArea[m.Area] = d.CostByArea[m.Area].Add(m.Cost)
	}
	return d, nil
}

// AddType добавляет пользовательский тип работ.
func (s *Service) AddType(ctx context.Context, identity, value string) error {
	return s.editList(ctx, identity, "maintenance.AddType", value, true, func(snap *models.Snapshot) *[]string {
		return &snap.MaintenanceTypes
	})
}

// RemoveType удаляет тип работ.
func (s *Service) RemoveType(ctx context.Context, identity, value string) error {
	return s.editList(ctx, identity, "maintenance.RemoveType", value, false, func(snap *models.Snapshot) *[]string {
		return &snap.MaintenanceTypes
	})
}

// AddArea добавляет помещение.
func (s *Service) AddArea(ctx context.Context, identity, value string) error {
	return s.editList(ctx, identity, "maintenance.AddArea", value, true, func(snap *models.Snapshot) *[]string {
		return &snap.MaintenanceAreas
	})
}

// RemoveArea удаляет помещение.
func (s *Service) RemoveArea(ctx context.Context, identity, value string) error {
	return s.editList(ctx, identity, "maintenance.RemoveArea", value, false, func(snap *models.Snapshot) *[]string {
		return &snap.MaintenanceAreas
	})
}

func (s *Service) editList(ctx context.Context, identity, op, value string, add bool, list func(*models.Snapshot) *[]string) error {
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceMaintenance}, func(snap *models.Snapshot) error {
		l := list(snap)
		i := slices.Index(*l, value)
		switch {
		case add && i >= 0:
			return ErrDuplicateValue
		case add:
			*l = append(*l, value)
		case i < 0:
			return ErrUnknownValue
		default:
			*l = slices.Delete(*l, i, i+1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
