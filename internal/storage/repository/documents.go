package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/household-ledger/internal/wire"
)

// ErrNotFound документа пользователя нет.
var ErrNotFound = errors.New("document not found")

var columns = []struct {
	field wire.Field
	name  string
}{
	{wire.FieldExpenses, "expenses"},
	{wire.FieldIncome, "income"},
	{wire.FieldNotes, "notes"},
	{wire.FieldFleet, "fleet"},
	{wire.FieldSystemUsers, "system_users"},
	{wire.FieldMaintenance, "maintenance"},
	{wire.FieldMaintenanceTypes, "maintenance_types"},
	{wire.FieldMaintenanceAreas, "maintenance_areas"},
	{wire.FieldCategories, "categories"},
	{wire.FieldSuppliers, "suppliers"},
	{wire.FieldPaymentMethods, "payment_methods"},
	{wire.FieldYears, "years"},
}

var (
	selectQuery = buildSelect()
	upsertQuery = buildUpsert()
)

func buildSelect() string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.name)
	}
	return `SELECT ` + strings.Join(names, ", ") + `, updated_at
			  FROM sync_documents WHERE user_id = $1`
}

func buildUpsert() string {
	names := make([]string, 0, len(columns))
	params := make([]string, 0, len(columns))
	sets := make([]string, 0, len(columns))
	for i, c := range columns {
		names = append(names, c.name)
		params = append(params, fmt.Sprintf("$%d::jsonb", i+2))
		sets = append(sets, fmt.Sprintf("%[1]s = COALESCE(EXCLUDED.%[1]s, sync_documents.%[1]s)", c.name))
	}
	updatedAt := len(columns) + 2
	return fmt.Sprintf(`INSERT INTO sync_documents (user_id, %s, updated_at)
			  VALUES ($1, %s, $%d)
			  ON CONFLICT (user_id) DO UPDATE SET
			  %s,
			  updated_at = EXCLUDED.updated_at`,
		strings.Join(names, ", "), strings.Join(params, ", "), updatedAt, strings.Join(sets, ",\n\t\t\t  "))
}

// GetDocument возвращает документ пользователя. Поля, которые ни разу не
// передавались, остаются nil.
func (s *Storage) GetDocument(ctx context.Context, userID string) (*wire.RawDocument, error) {
	const op = "repository.GetDocument"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	doc := wire.RawDocument{UserID: userID}
	raw := make([][]byte, len(columns))
	dest := make([]any, 0, len(columns)+1)
	for i := range raw {
		dest = append(dest, &raw[i])
	}
	dest = append(dest, &doc.UpdatedAt)

	err := s.DB.QueryRowContext(ctx, selectQuery, userID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i, c := range columns {
		if raw[i] != nil {
			*doc.Value(c.field) = raw[i]
		}
	}
	return &doc, nil
}

// UpsertDocument сохраняет переданные поля документа. Отсутствующие поля
// сохраняют прежнее значение, updated_at заменяется на updatedAt.
func (s *Storage) UpsertDocument(ctx context.Context, doc wire.RawDocument, updatedAt int64) error {
	const op = "repository.UpsertDocument"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	args := make([]any, 0, len(columns)+2)
	args = append(args, doc.UserID)
	for _, c := range columns {
		v := *doc.Value(c.field)
		if wire.IsSet(v) {
			args = append(args, string(v))
		} else {
			args = append(args, nil)
		}
	}
	args = append(args, updatedAt)

	if _, err := s.DB.ExecContext(ctx, upsertQuery, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteDocument удаляет документ пользователя и возвращает число удаленных строк.
func (s *Storage) DeleteDocument(ctx context.Context, userID string) (int, error) {
	const op = "repository.DeleteDocument"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM sync_documents WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
