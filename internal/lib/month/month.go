// Package month содержит помощники для работы с календарными датами записей:
// индекс месяца (0–11), год, сдвиг на N дней и формат дд/мм/гггг.
package month

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout формат дат в записях (YYYY-MM-DD).
	DateLayout = "2006-01-02"
	// BRLayout формат даты обновления автопарка (дд/мм/гггг).
	BRLayout = "02/01/2006"
)

// Parse разбирает дату записи.
func Parse(date string) (time.Time, error) {
	const op = "month.Parse"
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// Index возвращает индекс месяца (0–11) для даты в формате YYYY-MM-DD.
func Index(date string) (int, error) {
	t, err := Parse(date)
	if err != nil {
		return 0, err
	}
	return int(t.Month()) - 1, nil
}

// Year возвращает год даты; false, если дата пустая или некорректная.
func Year(date string) (int, bool) {
	t, err := Parse(date)
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}

// AddDays сдвигает дату на days дней.
func AddDays(date string, days int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

// DaysUntil считает полные дни от today до date (отрицательно для прошедших дат).
func DaysUntil(date string, today time.Time) (int, error) {
	t, err := Parse(date)
	if err != nil {
		return 0, err
	}
	day := Truncate(today)
	return int(t.Sub(day).Hours() / 24), nil
}

// Truncate отбрасывает время суток, оставляя дату в UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatBR форматирует дату как дд/мм/гггг.
func FormatBR(t time.Time) string {
	return t.Format(BRLayout)
}

// ParseBR разбирает дату в формате дд/мм/гггг.
func ParseBR(s string) (time.Time, error) {
	const op = "month.ParseBR"
	t, err := time.Parse(BRLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
