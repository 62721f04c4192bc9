package persistence

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/export"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/migration"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// newPostgresDB starts postgres in a container and applies the migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() || os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("Skipping postgres integration test; set INTEGRATION_TEST=1 to run")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("temba_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrationsDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	status, err := m.Status()
	require.NoError(t, err)
	assert.Empty(t, status.Pending)
	assert.False(t, status.Dirty)

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db
}

func TestPostgres_Integration(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("archives", func(t *testing.T) {
		repo := NewGormArchiveRepository(db)

		monthly := newTestArchive(t, orgID, archive.PeriodMonthly, day(2024, 1, 1), 30)
		daily := newTestArchive(t, orgID, archive.PeriodDaily, day(2024, 1, 15), 3)
		feb := newTestArchive(t, orgID, archive.PeriodDaily, day(2024, 2, 1), 4)
		for _, a := range []*archive.Archive{monthly, daily, feb} {
			require.NoError(t, repo.Create(ctx, a))
		}

		require.NoError(t, daily.RollUpInto(monthly))
		require.NoError(t, repo.Update(ctx, daily))

		covering, err := repo.FindCovering(ctx, orgID, archive.TypeMessage, day(2024, 1, 10), day(2024, 2, 2))
		require.NoError(t, err)
		require.Len(t, covering, 2)
		assert.Equal(t, monthly.ID, covering[0].ID)
		assert.Equal(t, feb.ID, covering[1].ID)

		dup := newTestArchive(t, orgID, archive.PeriodDaily, day(2024, 2, 1), 1)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("exports", func(t *testing.T) {
		repo := NewGormExportRepository(db)
		e := newTestExport(t, orgID, export.TypeMessages)
		require.NoError(t, repo.Create(ctx, e))

		pending, err := repo.FindPending(ctx, time.Now().Add(-time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, e.Config, pending[0].Config)

		require.NoError(t, e.Start())
		require.NoError(t, repo.Update(ctx, e))
		require.NoError(t, e.Complete(12, e.StoragePath()))
		require.NoError(t, repo.Update(ctx, e))

		found, err := repo.FindByIDForOrg(ctx, orgID, e.ID)
		require.NoError(t, err)
		assert.Equal(t, export.StatusComplete, found.Status)
		assert.Equal(t, 12, found.NumRecords)

		require.NoError(t, repo.Delete(ctx, e.ID))
		assert.ErrorIs(t, repo.Delete(ctx, e.ID), shared.ErrNotFound)
	})
}
