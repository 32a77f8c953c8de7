package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Attachment ссылка на файл во внешнем хранилище и ключ для его удаления.
type Attachment struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Expense запись о расходе.
type Expense struct {
	ID            string          `json:"id,omitempty"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
	Description   string          `json:"description" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category" validate:"required"`
	Supplier      string          `json:"supplier"`
	PaymentMethod string          `json:"paymentMethod"`
	DueDate       string          `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Attachment    *Attachment     `json:"attachment,omitempty"`
	// ReceiptPDF устаревшее вложение, закодированное в base64 прямо в записи.
	ReceiptPDF string `json:"receiptPDF,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Income запись о доходе.
type Income struct {
	ID          string          `json:"id,omitempty"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Attachment  *Attachment     `json:"attachment,omitempty"`
	ReceiptPDF  string          `json:"receiptPDF,omitempty"`
	Year        int             `json:"year,omitempty"`
}

// Key слабый идентификатор записи: id, а при его отсутствии кортеж
// (дата, описание, сумма).
func (e Expense) Key() string {
	return recordKey(e.ID, e.Date, e.Description, e.Amount)
}

// Key слабый идентификатор записи, см. Expense.Key.
func (i Income) Key() string {
	return recordKey(i.ID, i.Date, i.Description, i.Amount)
}

// Clone возвращает копию записи без общих указателей.
func (e Expense) Clone() Expense {
	if e.Attachment != nil {
		a := *e.Attachment
		e.Attachment = &a
	}
	return e
}

// Clone возвращает копию записи без общих указателей.
func (i Income) Clone() Income {
	if i.Attachment != nil {
		a := *i.Attachment
		i.Attachment = &a
	}
	return i
}

func recordKey(id, date, description string, amount decimal.Decimal) string {
	if id != "" {
		return "id:" + id
	}
	return strings.Join([]string{"tuple", date, description, amount.String()}, "|")
}
