// Package migrations содержит встроенные миграции локальной базы SQLite.
package migrations

import "embed"

// Migrations SQL-файлы goose.
//
//go:embed *.sql
var Migrations embed.FS
