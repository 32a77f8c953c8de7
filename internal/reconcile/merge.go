package reconcile

import (
	"slices"
	"strings"
	"time"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// Side сторона, чьи данные вошли в результат слияния.
type Side string

const (
	SideRemote Side = "remote"
	SideLocal  Side = "local"
	// SideBoth записи обеих сторон объединены.
	SideBoth Side = "both"
)

// MergeWinner сообщает, какую сторону выберет Merge для этих снимков.
func MergeWinner(local, remote models.Snapshot) Side {
	switch {
	case remote.UpdatedAt > local.UpdatedAt:
		return SideRemote
	case remote.UpdatedAt < local.UpdatedAt:
		return SideLocal
	}
	return SideBoth
}

// Merge сводит локальный и серверный снимки.
//
// Более свежий по UpdatedAt снимок побеждает целиком. При равенстве записи
// объединяются: сначала серверные, затем локальные, которых на сервере нет.
// UpdatedAt результата строго больше исходного.
func Merge(local, remote models.Snapshot, now time.Time) models.Snapshot {
	switch MergeWinner(local, remote) {
	case SideRemote:
		return remote.Clone()
	case SideLocal:
		return local.Clone()
	}

	out := remote.Clone()
	for m := range models.MonthsInYear {
		out.Expenses[m] = unionBy(out.Expenses[m], local.Expenses[m], models.Expense.Key, models.Expense.Clone)
		out.Income[m] = unionBy(out.Income[m], local.Income[m], models.Income.Key, models.Income.Clone)
		if out.Notes[m] == "" {
			out.Notes[m] = local.Notes[m]
		}
	}

	if laterBR(local.Fleet.UpdateDate, remote.Fleet.UpdateDate) {
		out.Fleet = local.Fleet.Clone()
	}

	out.Users = unionBy(out.Users, local.Users,
		func(u models.SystemUser) string { return strings.ToLower(u.Username) },
		func(u models.SystemUser) models.SystemUser { return u })
	out.Maintenance = unionBy(out.Maintenance, local.Maintenance,
		func(m models.Maintenance) string { return m.ID },
		models.Maintenance.Clone)
	out.MaintenanceTypes = unionValues(out.MaintenanceTypes, local.MaintenanceTypes)
	out.MaintenanceAreas = unionValues(out.MaintenanceAreas, local.MaintenanceAreas)
	out.Settings.Categories = unionValues(out.Settings.Categories, local.Settings.Categories)
	out.Settings.Suppliers = unionValues(out.Settings.Suppliers, local.Settings.Suppliers)
	out.Settings.PaymentMethods = unionValues(out.Settings.PaymentMethods, local.Settings.PaymentMethods)
	out.Settings.Years = unionValues(out.Settings.Years, local.Settings.Years)
	slices.Sort(out.Settings.Years)

	out.UpdatedAt = max(now.UnixMilli(), remote.UpdatedAt+1)
	out.Normalize()
	return out
}

func unionBy[T any](base, extra []T, key func(T) string, clone func(T) T) []T {
	out := make([]T, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, v := range base {
		seen[key(v)] = struct{}{}
		out = append(out, v)
	}
	for _, v := range extra {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, clone(v))
	}
	return out
}

func unionValues[T comparable](base, extra []T) []T {
	out := slices.Clone(base)
	if out == nil {
		out = []T{}
	}
	for _, v := range extra {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// laterBR сообщает, что дата a (дд/мм/гггг) строго позже b.
// Неразборчивая дата считается самой ранней.
func laterBR(a, b string) bool {
	ta, errA := month.ParseBR(a)
	if errA != nil {
		return false
	}
	tb, errB := month.ParseBR(b)
	if errB != nil {
		return true
	}
	return ta.After(tb)
}
