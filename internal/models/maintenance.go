package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaintenanceStatus сохраняемый статус обслуживания.
type MaintenanceStatus string

const (
	StatusPending    MaintenanceStatus = "pendente"
	StatusInProgress MaintenanceStatus = "em_andamento"
	StatusDone       MaintenanceStatus = "concluida"
	// StatusOverdue вычисляется и никогда не сохраняется.
	StatusOverdue MaintenanceStatus = "vencida"
)

// YesNo логический флаг, который в документе хранится как "sim"/"nao".
type YesNo bool

// MarshalJSON кодирует флаг как "sim" или "nao".
func (y YesNo) MarshalJSON() ([]byte, error) {
	if y {
		return []byte(`"sim"`), nil
	}
	return []byte(`"nao"`), nil
}

// UnmarshalJSON принимает "sim"/"nao", true/false и null.
func (y *YesNo) UnmarshalJSON(data []byte) error {
	const op = "models.YesNo.UnmarshalJSON"
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "null", `""`:
		*y = false
		return nil
	case "true":
		*y = true
		return nil
	case "false":
		*y = false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sim", "yes", "true":
		*y = true
	case "nao", "não", "no", "false":
		*y = false
	default:
		return fmt.Errorf("%s: unexpected value %q", op, s)
	}
	return nil
}

// File вложение к записи обслуживания.
type File struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Maintenance запись об обслуживании дома.
type Maintenance struct {
	ID       string            `json:"id"`
	Type     string            `json:"type" validate:"required"`
	Area     string            `json:"area" validate:"required"`
	Supplier string            `json:"supplier"`
	Date     string            `json:"date" validate:"omitempty,datetime=2006-01-02"`
	NextDate string            `json:"nextDate" validate:"omitempty,datetime=2006-01-02"`
	Cost     decimal.Decimal   `json:"cost"`
	Status   MaintenanceStatus `json:"status" validate:"omitempty,oneof=pendente em_andamento concluida"`
	// Recurring и PeriodDays задают повторение: следующая дата = дата + период.
	Recurring     YesNo  `json:"recurring"`
	PeriodDays    int    `json:"period,string,omitempty"`
	Desc          string `json:"desc"`
	Files         []File `json:"files"`
	LaunchExpense YesNo  `json:"launchExpense"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// Clone возвращает копию записи без общих срезов.
func (m Maintenance) Clone() Maintenance {
	m.Files = cloneSlice(m.Files)
	return m
}
