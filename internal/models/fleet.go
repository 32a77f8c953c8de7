package models

import (
	"strconv"
	"strings"
)

// Fleet автопарк пользователя и дата последнего изменения (дд/мм/гггг).
type Fleet struct {
	Vehicles   []Vehicle `json:"vehicles"`
	UpdateDate string    `json:"updateDate"`
}

// Vehicle карточка автомобиля. JSON-ключи совпадают с сохранённым форматом документа.
type Vehicle struct {
	Brand        string `json:"marca" validate:"required"`
	Model        string `json:"modelo" validate:"required"`
	Year         string `json:"ano"`
	Plate        string `json:"placa" validate:"required"`
	Chassis      string `json:"chassi"`
	Registration string `json:"renavam"`
	// NextService дата следующей ревизии (YYYY-MM-DD).
	NextService   string `json:"proxRevisao" validate:"omitempty,datetime=2006-01-02"`
	NextServiceKm string `json:"proxRevisaoKm"`
	Workshop      string `json:"oficina"`
	// Armored "SIM" или "NÃO".
	Armored       string            `json:"blindagem"`
	ArmorReview   string            `json:"revBlindagem" validate:"omitempty,datetime=2006-01-02"`
	Insurer       string            `json:"seguradora"`
	CurrentKm     string            `json:"kmAtual"`
	Notes         string            `json:"observacoes"`
	KmHistory     []OdometerReading `json:"kmHistory"`
	Document      string            `json:"documento,omitempty"`
	DocumentName  string            `json:"documentoNome,omitempty"`
	Invoices      string            `json:"notasFiscais,omitempty"`
	InvoicesName  string            `json:"notasFiscaisNome,omitempty"`
}

// OdometerReading запись истории пробега.
type OdometerReading struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Km   string `json:"km" validate:"required"`
	Desc string `json:"desc"`
}

// IsArmored сообщает, бронирован ли автомобиль.
func (v Vehicle) IsArmored() bool {
	return strings.EqualFold(strings.TrimSpace(v.Armored), "SIM")
}

// Clone возвращает копию автопарка без общих срезов.
func (f Fleet) Clone() Fleet {
	out := Fleet{UpdateDate: f.UpdateDate}
	if f.Vehicles != nil {
		out.Vehicles = make([]Vehicle, len(f.Vehicles))
		for i, v := range f.Vehicles {
			v.KmHistory = cloneSlice(v.KmHistory)
			out.Vehicles[i] = v
		}
	}
	return out
}

// ParseKm разбирает пробег в формате "82.322" или "82,322" в целое число.
// Некорректное значение даёт 0.
func ParseKm(s string) int {
	clean := strings.NewReplacer(".", "", ",", "", " ", "").Replace(s)
	n, err := strconv.Atoi(clean)
	if err != nil {
		return 0
	}
	return n
}
