// Package repository хранит документы синхронизации в PostgreSQL. Каждое
// поле документа лежит в своей JSONB-колонке; NULL означает, что поле ни
// разу не передавалось.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage соединение с PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New открывает соединение и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_name = 'sync_documents'
	)`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("repository.CheckDatabaseReady: %w", err)
	}
	if !exists {
		return fmt.Errorf("repository.CheckDatabaseReady: required table sync_documents missing")
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.DB.Close()
}
