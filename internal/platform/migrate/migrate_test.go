package migrate_test

import (
	"context"
	"testing"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/migrate"
	"github.com/phrazzld/tasks-api/internal/platform/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_SQLiteUpDownStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r, err := migrate.NewRunner(db, config.DriverSQLite, nil)
	require.NoError(t, err)

	statuses, err := r.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.False(t, statuses[0].Applied)

	require.NoError(t, r.Up(ctx))
	version, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	_, err = db.ExecContext(ctx, `INSERT INTO tasks (title) VALUES ('ok')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO tasks (title) VALUES ('   ')`)
	assert.Error(t, err, "blank titles violate the check constraint")

	require.NoError(t, r.Down(ctx))
	version, err = r.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, r.Up(ctx), "up is idempotent")
}

func TestNewRunner_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := migrate.NewRunner(nil, "oracle", nil)
	assert.Error(t, err)
}
