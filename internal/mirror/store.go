package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	// Регистрация драйвера sqlite для database/sql.
	_ "modernc.org/sqlite"

	"github.com/magabrotheeeer/household-ledger/internal/mirror/migrations"
)

// Store ключ-значение хранилище устройства. Ключи группируются по scope
// (идентификатор пользователя; пустой scope означает общие ключи устройства).
type Store interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Set(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
	List(ctx context.Context, scope string) (map[string][]byte, error)
	Clear(ctx context.Context, scope string) error
}

// SQLiteStore реализация Store поверх SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore оборачивает уже открытую базу с примененными миграциями.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Open открывает базу по dsn (путь к файлу или ":memory:") и применяет миграции.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	const op = "mirror.Open"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// у каждого соединения с ":memory:" своя база
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewSQLiteStore(db), nil
}

// RunMigrations применяет встроенные миграции goose.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	const op = "mirror.RunMigrations"
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get возвращает значение ключа или (nil, nil), если ключа нет.
func (s *SQLiteStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	const op = "mirror.SQLiteStore.Get"
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM mirror WHERE scope = ? AND key = ?`, scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s/%s: %w", op, scope, key, err)
	}
	return value, nil
}

// Set записывает значение ключа.
func (s *SQLiteStore) Set(ctx context.Context, scope, key string, value []byte) error {
	const op = "mirror.SQLiteStore.Set"
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mirror (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, scope, key, value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("%s: %s/%s: %w", op, scope, key, err)
	}
	return nil
}

// Delete удаляет ключ.
func (s *SQLiteStore) Delete(ctx context.Context, scope, key string) error {
	const op = "mirror.SQLiteStore.Delete"
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mirror WHERE scope = ? AND key = ?`, scope, key); err != nil {
		return fmt.Errorf("%s: %s/%s: %w", op, scope, key, err)
	}
	return nil
}

// List возвращает все ключи scope.
func (s *SQLiteStore) List(ctx context.Context, scope string) (map[string][]byte, error) {
	const op = "mirror.SQLiteStore.List"
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM mirror WHERE scope = ?`, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Clear удаляет все ключи scope.
func (s *SQLiteStore) Clear(ctx context.Context, scope string) error {
	const op = "mirror.SQLiteStore.Clear"
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mirror WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
