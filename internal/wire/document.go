// Package wire описывает JSON-документ, которым клиент обменивается с сервером
// синхронизации, и преобразование снимка в документ и обратно.
//
// Поля документа необязательные: отсутствующее поле сервер не трогает,
// пустой массив означает «очистить».
package wire

import (
	"encoding/json"

	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// Group записи одного месяца одного года.
type Group[T any] struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	Items []T `json:"items"`
}

// NoteGroup заметка месяца.
type NoteGroup struct {
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	Content string `json:"content"`
}

// Document типизированный документ пользователя.
type Document struct {
	UserID           string                   `json:"userId,omitempty"`
	Expenses         *[]Group[models.Expense] `json:"expenses,omitempty"`
	Income           *[]Group[models.Income]  `json:"income,omitempty"`
	Notes            *[]NoteGroup             `json:"notes,omitempty"`
	Fleet            *models.Fleet            `json:"fleet,omitempty"`
	SystemUsers      *[]models.SystemUser     `json:"systemUsers,omitempty"`
	Maintenance      *[]models.Maintenance    `json:"maintenance,omitempty"`
	MaintenanceTypes *[]string                `json:"maintenanceTypes,omitempty"`
	MaintenanceAreas *[]string                `json:"maintenanceAreas,omitempty"`
	Categories       *[]string                `json:"categories,omitempty"`
	Suppliers        *[]string                `json:"suppliers,omitempty"`
	PaymentMethods   *[]string                `json:"paymentMethods,omitempty"`
	Years            *[]int                   `json:"years,omitempty"`
	UpdatedAt        int64                    `json:"updatedAt,omitempty"`
}

// Field имя поля документа.
type Field string

const (
	FieldExpenses         Field = "expenses"
	FieldIncome           Field = "income"
	FieldNotes            Field = "notes"
	FieldFleet            Field = "fleet"
	FieldSystemUsers      Field = "systemUsers"
	FieldMaintenance      Field = "maintenance"
	FieldMaintenanceTypes Field = "maintenanceTypes"
	FieldMaintenanceAreas Field = "maintenanceAreas"
	FieldCategories       Field = "categories"
	FieldSuppliers        Field = "suppliers"
	FieldPaymentMethods   Field = "paymentMethods"
	FieldYears            Field = "years"
)

// Fields все поля документа, хранимые сервером.
var Fields = []Field{
	FieldExpenses,
	FieldIncome,
	FieldNotes,
	FieldFleet,
	FieldSystemUsers,
	FieldMaintenance,
	FieldMaintenanceTypes,
	FieldMaintenanceAreas,
	FieldCategories,
	FieldSuppliers,
	FieldPaymentMethods,
	FieldYears,
}

// RawDocument документ в виде, в котором его хранит сервер: содержимое полей
// не разбирается, nil означает отсутствие поля.
type RawDocument struct {
	UserID           string          `json:"userId" validate:"required"`
	Expenses         json.RawMessage `json:"expenses,omitempty"`
	Income           json.RawMessage `json:"income,omitempty"`
	Notes            json.RawMessage `json:"notes,omitempty"`
	Fleet            json.RawMessage `json:"fleet,omitempty"`
	SystemUsers      json.RawMessage `json:"systemUsers,omitempty"`
	Maintenance      json.RawMessage `json:"maintenance,omitempty"`
	MaintenanceTypes json.RawMessage `json:"maintenanceTypes,omitempty"`
	MaintenanceAreas json.RawMessage `json:"maintenanceAreas,omitempty"`
	Categories       json.RawMessage `json:"categories,omitempty"`
	Suppliers        json.RawMessage `json:"suppliers,omitempty"`
	PaymentMethods   json.RawMessage `json:"paymentMethods,omitempty"`
	Years            json.RawMessage `json:"years,omitempty"`
	UpdatedAt        int64           `json:"updatedAt,omitempty"`
}

// Value возвращает указатель на поле документа по имени.
func (d *RawDocument) Value(f Field) *json.RawMessage {
	switch f {
	case FieldExpenses:
		return &d.Expenses
	case FieldIncome:
		return &d.Income
	case FieldNotes:
		return &d.Notes
	case FieldFleet:
		return &d.Fleet
	case FieldSystemUsers:
		return &d.SystemUsers
	case FieldMaintenance:
		return &d.Maintenance
	case FieldMaintenanceTypes:
		return &d.MaintenanceTypes
	case FieldMaintenanceAreas:
		return &d.MaintenanceAreas
	case FieldCategories:
		return &d.Categories
	case FieldSuppliers:
		return &d.Suppliers
	case FieldPaymentMethods:
		return &d.PaymentMethods
	case FieldYears:
		return &d.Years
	}
	return nil
}

// Present возвращает поля, переданные в документе. Литерал null считается отсутствием.
func (d *RawDocument) Present() []Field {
	var out []Field
	for _, f := range Fields {
		if v := d.Value(f); v != nil && IsSet(*v) {
			out = append(out, f)
		}
	}
	return out
}

// IsSet сообщает, содержит ли сырое поле значение, отличное от null.
func IsSet(v json.RawMessage) bool {
	return len(v) > 0 && string(v) != "null"
}
