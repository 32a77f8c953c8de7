package mirror

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/household-ledger/internal/models"
)

func setupMirror(t *testing.T) (*Mirror, *SQLiteStore) {
	t.Helper()
	store := setupStore(t)
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestMirror_WriteThenReadSnapshot(t *testing.T) {
	m, _ := setupMirror(t)
	ctx := context.Background()

	s := models.NewSnapshot()
	s.Expenses[2] = []models.Expense{{ID: "e1", Date: "2025-03-10", Description: "Mercado", Amount: decimal.RequireFromString("120.5"), Category: "Alimentação", Year: 2025}}
	s.Notes[0] = "janeiro"
	s.Fleet.Vehicles = []models.Vehicle{{Plate: "BZA1B19", KmHistory: []models.OdometerReading{}}}
	s.UpdatedAt = 1700000000000

	require.NoError(t, m.Write(ctx, "maria", s))

	got, found, err := m.ReadSnapshot(ctx, "maria")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.Expenses[2], 1)
	assert.Equal(t, "e1", got.Expenses[2][0].ID)
	assert.True(t, s.Expenses[2][0].Amount.Equal(got.Expenses[2][0].Amount))
	assert.Equal(t, "janeiro", got.Notes[0])
	assert.Equal(t, "BZA1B19", got.Fleet.Vehicles[0].Plate)
	assert.Equal(t, int64(1700000000000), got.UpdatedAt)
	assert.Equal(t, s.Settings, got.Settings)
}

func TestMirror_ReadSnapshotUnknownIdentity(t *testing.T) {
	m, _ := setupMirror(t)

	got, found, err := m.ReadSnapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, got.HasRecords())
	assert.Len(t, got.Expenses, models.MonthsInYear)
}

func TestMirror_WriteOnlyNamedSlices(t *testing.T) {
	m, store := setupMirror(t)
	ctx := context.Background()

	s := models.NewSnapshot()
	s.Notes[3] = "abril"
	require.NoError(t, m.Write(ctx, "maria", s, models.SliceNotes))

	keys, err := store.List(ctx, "maria")
	require.NoError(t, err)
	assert.Contains(t, keys, "notes")
	assert.NotContains(t, keys, "expenses")
	assert.NotContains(t, keys, "fleetData")
}

func TestMirror_CorruptSliceIsResetToDefault(t *testing.T) {
	m, store := setupMirror(t)
	ctx := context.Background()

	s := models.NewSnapshot()
	s.Notes[1] = "fevereiro"
	require.NoError(t, m.Write(ctx, "maria", s))
	require.NoError(t, store.Set(ctx, "maria", string(models.SliceExpenses), []byte(`{not json`)))
	require.NoError(t, store.Set(ctx, "maria", string(models.SliceSettings), []byte(`[1,2`)))

	got, found, err := m.ReadSnapshot(ctx, "maria")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "fevereiro", got.Notes[1])
	for i := range models.MonthsInYear {
		assert.NotNil(t, got.Expenses[i])
		assert.Empty(t, got.Expenses[i])
	}
	assert.Equal(t, models.DefaultSettings(), got.Settings)

	raw, err := store.Get(ctx, "maria", string(models.SliceExpenses))
	require.NoError(t, err)
	assert.Nil(t, raw, "поврежденный раздел должен быть удален")
}

func TestMirror_ShortMonthArrayKeepsTwelveBuckets(t *testing.T) {
	m, store := setupMirror(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "maria", string(models.SliceIncome), []byte(`[[{"id":"i1","date":"2025-01-05","description":"x","amount":"10"}]]`)))

	var s models.Snapshot
	ok, err := m.Read(ctx, "maria", models.SliceIncome, &s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, s.Income[0], 1)
	for i := 1; i < models.MonthsInYear; i++ {
		assert.NotNil(t, s.Income[i])
	}
}

func TestMirror_Clear(t *testing.T) {
	m, _ := setupMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Write(ctx, "maria", models.NewSnapshot()))
	require.NoError(t, m.Write(ctx, "joao", models.NewSnapshot()))
	require.NoError(t, m.Clear(ctx, "maria"))

	_, found, err := m.ReadSnapshot(ctx, "maria")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = m.ReadSnapshot(ctx, "joao")
	require.NoError(t, err)
	assert.True(t, found)
}
