// Package testdb provides database fixtures for tests: an in-memory SQLite
// store for unit tests and a migrated PostgreSQL connection for integration
// tests.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/migrate"
	"github.com/phrazzld/tasks-api/internal/platform/postgres"
	"github.com/phrazzld/tasks-api/internal/platform/sqlite"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds fixture setup.
const TestTimeout = 10 * time.Second

// IsIntegrationTestEnvironment reports whether a PostgreSQL URL is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDatabaseURL returns DATABASE_URL, or TASKS_TEST_DB_URL when unset.
func GetTestDatabaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	return os.Getenv("TASKS_TEST_DB_URL")
}

// NewSQLiteStore returns a task store on a fresh, migrated in-memory database.
func NewSQLiteStore(t *testing.T) *sqlite.SQLiteTaskStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := sqlite.Open(ctx, ":memory:", nil)
	require.NoError(t, err, "failed to open sqlite")
	t.Cleanup(func() { _ = db.Close() })

	migrateUp(ctx, t, db, config.DriverSQLite)
	return sqlite.NewSQLiteTaskStore(db, nil)
}

// OpenPostgres connects to the integration database, applies migrations and
// empties the tasks table. The test is skipped when no URL is configured.
func OpenPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if !IsIntegrationTestEnvironment() {
		t.Skip("skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	dbURL := GetTestDatabaseURL()
	db, err := postgres.Open(ctx, config.DatabaseConfig{
		Driver:         config.DriverPostgres,
		URL:            dbURL,
		MaxOpenConns:   5,
		MaxIdleConns:   2,
		ConnMaxLifeMin: 1,
	}, testLogger())
	require.NoError(t, err, "failed to connect to %s", redact.DatabaseURL(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	migrateUp(ctx, t, db, config.DriverPostgres)
	_, err = db.ExecContext(ctx, `TRUNCATE tasks RESTART IDENTITY`)
	require.NoError(t, err, "failed to reset tasks table")
	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

func migrateUp(ctx context.Context, t *testing.T, db *sql.DB, driver string) {
	t.Helper()
	runner, err := migrate.NewRunner(db, driver, testLogger())
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx), "failed to run migrations")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
