package wire

import (
	"cmp"
	"slices"
	"time"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// Encode преобразует разделы снимка в документ. Каждая месячная корзина
// раскладывается на группы (месяц, год): год записи берётся из поля Year,
// затем из даты, затем из now. Пустые месяцы групп не дают; запрошенный,
// но пустой раздел передаётся пустым массивом. Разделы вне slices в
// документ не попадают.
func Encode(s models.Snapshot, parts []models.Slice, now time.Time) Document {
	var doc Document
	for _, part := range parts {
		switch part {
		case models.SliceExpenses:
			groups := fanOut(s.Expenses, func(e models.Expense) int { return itemYear(e.Year, e.Date, now) })
			doc.Expenses = &groups
		case models.SliceIncome:
			groups := fanOut(s.Income, func(i models.Income) int { return itemYear(i.Year, i.Date, now) })
			doc.Income = &groups
		case models.SliceNotes:
			notes := encodeNotes(s.Notes, now)
			doc.Notes = &notes
		case models.SliceFleet:
			fleet := s.Fleet.Clone()
			if fleet.Vehicles == nil {
				fleet.Vehicles = []models.Vehicle{}
			}
			doc.Fleet = &fleet
		case models.SliceUsers:
			users := make([]models.SystemUser, 0, len(s.Users))
			for _, u := range s.Users {
				u.Password = ""
				users = append(users, u)
			}
			doc.SystemUsers = &users
		case models.SliceMaintenance:
			records := nonNil(s.Maintenance)
			for i := range records {
				records[i] = records[i].Clone()
			}
			types := nonNil(s.MaintenanceTypes)
			areas := nonNil(s.MaintenanceAreas)
			doc.Maintenance = &records
			doc.MaintenanceTypes = &types
			doc.MaintenanceAreas = &areas
		case models.SliceSettings:
			categories := nonNil(s.Settings.Categories)
			suppliers := nonNil(s.Settings.Suppliers)
			methods := nonNil(s.Settings.PaymentMethods)
			years := nonNil(s.Settings.Years)
			doc.Categories = &categories
			doc.Suppliers = &suppliers
			doc.PaymentMethods = &methods
			doc.Years = &years
		}
	}
	return doc
}

// Decode собирает снимок из документа. Группы сворачиваются обратно в
// 12 месячных корзин, каждой записи проставляется год группы. Группы с
// месяцем вне 0–11 отбрасываются. Отсутствующие разделы получают значения
// по умолчанию.
func Decode(doc Document) models.Snapshot {
	s := models.NewSnapshot()
	if doc.Expenses != nil {
		s.Expenses = fanIn(*doc.Expenses, func(e *models.Expense, y int) { e.Year = y })
	}
	if doc.Income != nil {
		s.Income = fanIn(*doc.Income, func(i *models.Income, y int) { i.Year = y })
	}
	if doc.Notes != nil {
		s.Notes = decodeNotes(*doc.Notes)
	}
	if doc.Fleet != nil {
		s.Fleet = doc.Fleet.Clone()
	}
	if doc.SystemUsers != nil {
		s.Users = make([]models.SystemUser, 0, len(*doc.SystemUsers))
		for _, u := range *doc.SystemUsers {
			u.Role = models.NormalizeRole(u.Role)
			s.Users = append(s.Users, u)
		}
	}
	if doc.Maintenance != nil {
		s.Maintenance = make([]models.Maintenance, 0, len(*doc.Maintenance))
		for _, m := range *doc.Maintenance {
			s.Maintenance = append(s.Maintenance, m.Clone())
		}
	}
	if doc.MaintenanceTypes != nil {
		s.MaintenanceTypes = slices.Clone(*doc.MaintenanceTypes)
	}
	if doc.MaintenanceAreas != nil {
		s.MaintenanceAreas = slices.Clone(*doc.MaintenanceAreas)
	}
	if doc.Categories != nil {
		s.Settings.Categories = slices.Clone(*doc.Categories)
	}
	if doc.Suppliers != nil {
		s.Settings.Suppliers = slices.Clone(*doc.Suppliers)
	}
	if doc.PaymentMethods != nil {
		s.Settings.PaymentMethods = slices.Clone(*doc.PaymentMethods)
	}
	if doc.Years != nil {
		s.Settings.Years = slices.Clone(*doc.Years)
	}
	s.UpdatedAt = doc.UpdatedAt
	s.Normalize()
	return s
}

func fanOut[T any](buckets [models.MonthsInYear][]T, yearOf func(T) int) []Group[T] {
	groups := []Group[T]{}
	for m := range models.MonthsInYear {
		byYear := make(map[int][]T)
		var years []int
		for _, item := range buckets[m] {
			y := yearOf(item)
			if _, ok := byYear[y]; !ok {
				years = append(years, y)
			}
			byYear[y] = append(byYear[y], item)
		}
		slices.Sort(years)
		for _, y := range years {
			groups = append(groups, Group[T]{Month: m, Year: y, Items: byYear[y]})
		}
	}
	return groups
}

func fanIn[T any](groups []Group[T], setYear func(*T, int)) [models.MonthsInYear][]T {
	var out [models.MonthsInYear][]T
	for m := range models.MonthsInYear {
		out[m] = []T{}
	}

	ordered := slices.Clone(groups)
	slices.SortStableFunc(ordered, func(a, b Group[T]) int {
		return cmp.Compare(a.Year, b.Year)
	})
	for _, g := range ordered {
		if g.Month < 0 || g.Month >= models.MonthsInYear {
			continue
		}
		for _, item := range g.Items {
			setYear(&item, g.Year)
			out[g.Month] = append(out[g.Month], item)
		}
	}
	return out
}

func encodeNotes(notes [models.MonthsInYear]string, now time.Time) []NoteGroup {
	out := []NoteGroup{}
	for m, content := range notes {
		if content == "" {
			continue
		}
		out = append(out, NoteGroup{Month: m, Year: now.Year(), Content: content})
	}
	return out
}

func decodeNotes(groups []NoteGroup) [models.MonthsInYear]string {
	var out [models.MonthsInYear]string
	var years [models.MonthsInYear]int
	for _, g := range groups {
		if g.Month < 0 || g.Month >= models.MonthsInYear {
			continue
		}
		if out[g.Month] == "" || g.Year >= years[g.Month] {
			out[g.Month] = g.Content
			years[g.Month] = g.Year
		}
	}
	return out
}

func itemYear(year int, date string, now time.Time) int {
	if year != 0 {
		return year
	}
	if y, ok := month.Year(date); ok {
		return y
	}
	return now.Year()
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
