package fleet

import (
	"fmt"

	"github.com/magabrotheeeer/household-ledger/internal/lib/month"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// AlertKind вид напоминания.
type AlertKind string

const (
	AlertServiceDate AlertKind = "service_date"
	AlertServiceKm   AlertKind = "service_km"
	AlertArmorReview AlertKind = "armor_review"
)

// Alert напоминание по автомобилю. DaysLeft отрицательный для просроченных дат.
type Alert struct {
	Plate    string
	Kind     AlertKind
	DaysLeft int
	Message  string
}

// Alerts напоминания о ревизиях: дата ревизии в пределах AlertWindowDays или
// прошла, достигнут пробег ревизии, подходит ревизия брони.
func (s *Service) Alerts(identity string) ([]Alert, error) {
	snap, err := s.store.Current(identity)
	if err != nil {
		return nil, fmt.Errorf("fleet.Alerts: %w", err)
	}
	today := s.now()

	var out []Alert
	for _, v := range snap.Fleet.Vehicles {
		if days, err := month.DaysUntil(v.NextService, today); err == nil && days <= AlertWindowDays {
			out = append(out, Alert{Plate: v.Plate, Kind: AlertServiceDate, DaysLeft: days,
				Message: fmt.Sprintf("%s %s: revisão em %d dias", v.Brand, v.Model, days)})
		}
		if limit := models.ParseKm(v.NextServiceKm); limit > 0 && models.ParseKm(v.CurrentKm) >= limit {
			out = append(out, Alert{Plate: v.Plate, Kind: AlertServiceKm,
				Message: fmt.Sprintf("%s %s: quilometragem de revisão atingida", v.Brand, v.Model)})
		}
		if !v.IsArmored() {
			continue
		}
		if days, err := month.DaysUntil(v.ArmorReview, today); err == nil && days <= AlertWindowDays {
			out = append(out, Alert{Plate: v.Plate, Kind: AlertArmorReview, DaysLeft: days,
				Message: fmt.Sprintf("%s %s: revisão da blindagem em %d dias", v.Brand, v.Model, days)})
		}
	}
	return out, nil
}
