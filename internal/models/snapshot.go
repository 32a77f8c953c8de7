// Package models содержит доменные структуры снимка данных пользователя:
// помесячные расходы и доходы, заметки, автопарк, обслуживание дома,
// системных пользователей и списки настроек.
//
// Снимок хранит месячные корзины в массивах фиксированной длины, поэтому
// диапазон месяцев 0–11 присутствует всегда, даже если корзины пустые.
package models

// MonthsInYear число месячных корзин в снимке.
const MonthsInYear = 12

// Slice логический раздел снимка. Раздел является единицей частичной записи
// на сервер и в локальное зеркало.
type Slice string

const (
	SliceExpenses    Slice = "expenses"
	SliceIncome      Slice = "income"
	SliceNotes       Slice = "notes"
	SliceFleet       Slice = "fleetData"
	SliceUsers       Slice = "systemUsers"
	SliceMaintenance Slice = "maintenance"
	SliceSettings    Slice = "settings"
)

// AllSlices все разделы снимка в порядке сериализации.
var AllSlices = []Slice{
	SliceExpenses,
	SliceIncome,
	SliceNotes,
	SliceFleet,
	SliceUsers,
	SliceMaintenance,
	SliceSettings,
}

// Settings списки настроек, из которых выбираются значения при вводе записей.
type Settings struct {
	Categories     []string `json:"categories"`
	Suppliers      []string `json:"suppliers"`
	PaymentMethods []string `json:"paymentMethods"`
	Years          []int    `json:"years"`
}

// Snapshot полное состояние одного пользователя на момент времени.
type Snapshot struct {
	Expenses         [MonthsInYear][]Expense `json:"expenses"`
	Income           [MonthsInYear][]Income  `json:"income"`
	Notes            [MonthsInYear]string    `json:"notes"`
	Fleet            Fleet                   `json:"fleet"`
	Users            []SystemUser            `json:"systemUsers"`
	Maintenance      []Maintenance           `json:"maintenance"`
	MaintenanceTypes []string                `json:"maintenanceTypes"`
	MaintenanceAreas []string                `json:"maintenanceAreas"`
	Settings         Settings                `json:"settings"`
	// UpdatedAt время последнего изменения в миллисекундах unix, 0 если неизвестно.
	UpdatedAt int64 `json:"updatedAt"`
}

// NewSnapshot возвращает пустой снимок со списками по умолчанию.
func NewSnapshot() Snapshot {
	var s Snapshot
	for m := range MonthsInYear {
		s.Expenses[m] = []Expense{}
		s.Income[m] = []Income{}
	}
	s.Fleet = Fleet{Vehicles: []Vehicle{}}
	s.Users = DefaultUsers()
	s.Maintenance = []Maintenance{}
	s.MaintenanceTypes = DefaultMaintenanceTypes()
	s.MaintenanceAreas = DefaultMaintenanceAreas()
	s.Settings = DefaultSettings()
	return s
}

// HasRecords сообщает, содержит ли снимок пользовательские данные.
// Списки настроек и пользователи по умолчанию данными не считаются.
func (s Snapshot) HasRecords() bool {
	for m := range MonthsInYear {
		if len(s.Expenses[m]) > 0 || len(s.Income[m]) > 0 || s.Notes[m] != "" {
			return true
		}
	}
	return len(s.Fleet.Vehicles) > 0 || len(s.Maintenance) > 0
}

// Normalize заменяет nil-корзины пустыми срезами.
func (s *Snapshot) Normalize() {
	for m := range MonthsInYear {
		if s.Expenses[m] == nil {
			s.Expenses[m] = []Expense{}
		}
		if s.Income[m] == nil {
			s.Income[m] = []Income{}
		}
	}
	if s.Fleet.Vehicles == nil {
		s.Fleet.Vehicles = []Vehicle{}
	}
	for i := range s.Fleet.Vehicles {
		if s.Fleet.Vehicles[i].KmHistory == nil {
			s.Fleet.Vehicles[i].KmHistory = []OdometerReading{}
		}
	}
	if s.Users == nil {
		s.Users = []SystemUser{}
	}
	if s.Maintenance == nil {
		s.Maintenance = []Maintenance{}
	}
}

// BackfillIDs присваивает идентификаторы записям без id и возвращает их количество.
func (s *Snapshot) BackfillIDs(newID func() string) int {
	n := 0
	for m := range MonthsInYear {
		for i := range s.Expenses[m] {
			if s.Expenses[m][i].ID == "" {
				s.Expenses[m][i].ID = newID()
				n++
			}
		}
		for i := range s.Income[m] {
			if s.Income[m][i].ID == "" {
				s.Income[m][i].ID = newID()
				n++
			}
		}
	}
	for i := range s.Maintenance {
		if s.Maintenance[i].ID == "" {
			s.Maintenance[i].ID = newID()
			n++
		}
	}
	return n
}

// Assign копирует в s перечисленные разделы из src.
func (s *Snapshot) Assign(src Snapshot, parts ...Slice) {
	c := src.Clone()
	for _, part := range parts {
		switch part {
		case SliceExpenses:
			s.Expenses = c.Expenses
		case SliceIncome:
			s.Income = c.Income
		case SliceNotes:
			s.Notes = c.Notes
		case SliceFleet:
			s.Fleet = c.Fleet
		case SliceUsers:
			s.Users = c.Users
		case SliceMaintenance:
			s.Maintenance = c.Maintenance
			s.MaintenanceTypes = c.MaintenanceTypes
			s.MaintenanceAreas = c.MaintenanceAreas
		case SliceSettings:
			s.Settings = c.Settings
		}
	}
}

// Clone возвращает глубокую копию снимка.
func (s Snapshot) Clone() Snapshot {
	out := s
	for m := range MonthsInYear {
		out.Expenses[m] = cloneEach(s.Expenses[m], Expense.Clone)
		out.Income[m] = cloneEach(s.Income[m], Income.Clone)
	}
	out.Fleet = s.Fleet.Clone()
	out.Users = cloneSlice(s.Users)
	out.Maintenance = cloneEach(s.Maintenance, Maintenance.Clone)
	out.MaintenanceTypes = cloneSlice(s.MaintenanceTypes)
	out.MaintenanceAreas = cloneSlice(s.MaintenanceAreas)
	out.Settings = Settings{
		Categories:     cloneSlice(s.Settings.Categories),
		Suppliers:      cloneSlice(s.Settings.Suppliers),
		PaymentMethods: cloneSlice(s.Settings.PaymentMethods),
		Years:          cloneSlice(s.Settings.Years),
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneEach[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
