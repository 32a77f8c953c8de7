package ledger

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/household-ledger/internal/models"
)

// Summary итоги месяца.
type Summary struct {
	Month      int
	Year       int
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	Balance    decimal.Decimal
	ByCategory map[string]decimal.Decimal
}

// Categories категории итога в алфавитном порядке.
func (s Summary) Categories() []string {
	return slices.Sorted(maps.Keys(s.ByCategory))
}

// MonthSummary считает итоги месяца. year = 0 учитывает записи всех лет.
func (s *Service) MonthSummary(identity string, monthIdx, year int) (Summary, error) {
	const op = "ledger.MonthSummary"
	if monthIdx < 0 || monthIdx >= models.MonthsInYear {
		return Summary{}, fmt.Errorf("%s: %w", op, ErrInvalidMonth)
	}
	snap, err := s.store.Current(identity)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", op, err)
	}
	return summarize(snap, monthIdx, year), nil
}

// YearSummary итоги по всем месяцам года и общий итог.
func (s *Service) YearSummary(identity string, year int) ([]Summary, Summary, error) {
	const op = "ledger.YearSummary"
	snap, err := s.store.Current(identity)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	total := Summary{Month: -1, Year: year, ByCategory: map[string]decimal.Decimal{}}
	months := make([]Summary, 0, models.MonthsInYear)
	for m := range models.MonthsInYear {
		sum := summarize(snap, m, year)
		months = append(months, sum)
		total.Income = total.Income.Add(sum.Income)
		total.Expenses = total.Expenses.Add(sum.Expenses)
		for c, v := range sum.ByCategory {
			total.ByCategory[c] = total.ByCategory[c].Add(v)
		}
	}
	total.Balance = total.Income.Sub(total.Expenses)
	return months, total, nil
}

func summarize(snap models.Snapshot, monthIdx, year int) Summary {
	sum := Summary{Month: monthIdx, Year: year, ByCategory: map[string]decimal.Decimal{}}
	for _, e := range snap.Expenses[monthIdx] {
		if year != 0 && e.Year != year {
			continue
		}
		sum.Expenses = sum.Expenses.Add(e.Amount)
		category := e.Category
		if category == "" {
			category = "Outros"
		}
		sum.ByCategory[category] = sum.ByCategory[category].Add(e.Amount)
	}
	for _, in := range snap.Income[monthIdx] {
		if year != 0 && in.Year != year {
			continue
		}
		sum.Income = sum.Income.Add(in.Amount)
	}
	sum.Balance = sum.Income.Sub(sum.Expenses)
	return sum
}
