package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_TableTests(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		want    int
		wantErr bool
	}{
		{name: "january", date: "2025-01-31", want: 0},
		{name: "march", date: "2025-03-10", want: 2},
		{name: "december", date: "2024-12-01", want: 11},
		{name: "surrounding spaces", date: " 2025-07-04 ", want: 6},
		{name: "empty", date: "", wantErr: true},
		{name: "br format is rejected", date: "10/03/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Index(tt.date)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYear(t *testing.T) {
	y, ok := Year("2026-02-14")
	assert.True(t, ok)
	assert.Equal(t, 2026, y)

	_, ok = Year("garbage")
	assert.False(t, ok)
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2025-01-20", 30)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-19", got)

	_, err = AddDays("", 30)
	assert.Error(t, err)
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2025, 3, 10, 17, 45, 0, 0, time.UTC)

	days, err := DaysUntil("2025-03-20", today)
	require.NoError(t, err)
	assert.Equal(t, 10, days)

	days, err = DaysUntil("2025-03-09", today)
	require.NoError(t, err)
	assert.Equal(t, -1, days)

	days, err = DaysUntil("2025-03-10", today)
	require.NoError(t, err)
	assert.Equal(t, 0, days)
}

func TestBRFormat(t *testing.T) {
	d := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "10/01/2026", FormatBR(d))

	parsed, err := ParseBR("10/01/2026")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(d))
}
