package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/household-ledger/internal/models"
)

func TestListOptions_MatchExpense(t *testing.T) {
	e := models.Expense{Description: "Conta de Luz", Category: "Casa", Supplier: "Light", Year: 2025}

	tests := []struct {
		name string
		opts ListOptions
		want bool
	}{
		{name: "empty filter", opts: ListOptions{}, want: true},
		{name: "search ignores case", opts: ListOptions{Search: "LUZ"}, want: true},
		{name: "search miss", opts: ListOptions{Search: "água"}, want: false},
		{name: "category", opts: ListOptions{Category: "Casa"}, want: true},
		{name: "category is exact", opts: ListOptions{Category: "casa"}, want: false},
		{name: "supplier", opts: ListOptions{Supplier: "Light", Search: "conta"}, want: true},
		{name: "supplier miss", opts: ListOptions{Supplier: "Enel"}, want: false},
		{name: "year miss", opts: ListOptions{Year: 2024, Search: "luz"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.matchExpense(e))
		})
	}
}
