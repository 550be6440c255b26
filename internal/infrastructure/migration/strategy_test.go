package migration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrate.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGooseStrategy_UpStatusDown(t *testing.T) {
	db := openTestDB(t)
	strategy, err := NewGooseStrategy("sqlite", logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "goose", strategy.GetName())

	require.NoError(t, strategy.Migrate(db))
	assert.True(t, db.Migrator().HasTable("line_identity_bindings"))
	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasTable("broker_settings"))

	current, statuses, err := strategy.Status(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
	require.NotEmpty(t, statuses)
	assert.True(t, statuses[0].Applied)

	// running again is a no-op
	require.NoError(t, strategy.Migrate(db))

	require.NoError(t, strategy.MigrateDown(db, 1))
	assert.False(t, db.Migrator().HasTable("line_identity_bindings"))
}

func TestGooseStrategy_UnknownDriver(t *testing.T) {
	_, err := NewGooseStrategy("oracle", logger.NewNopLogger())
	assert.Error(t, err)
}

func TestAutoMigrate(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"users", "line_identity_bindings", "broker_settings"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
