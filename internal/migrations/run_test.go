package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func getTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return db, cleanup
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)
	return filepath.Join(projectRoot, "migrations")
}

func TestRun(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	path := getMigrationsPath(t)
	require.NoError(t, Run(db, path))

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'sync_documents'
		)`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)

	var columns int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_name = 'sync_documents' AND data_type = 'jsonb'`).Scan(&columns)
	require.NoError(t, err)
	assert.Equal(t, 12, columns)

	t.Run("повторный запуск", func(t *testing.T) {
		require.NoError(t, Run(db, "file://"+path))
	})
}

func TestRun_BadSource(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	err := Run(db, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations.Run")
}
