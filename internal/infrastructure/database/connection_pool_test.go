package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"prima-sync-service/internal/domain/models"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	pool, err := NewConnectionPoolWithDialector(sqlite.Open(dsn), gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, pool.UpdatePoolConfig(1, 1, time.Hour, time.Hour))
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestMigrateCreatesSchema(t *testing.T) {
	pool := newTestPool(t)
	require.NoError(t, Migrate(pool.GetDB(), MigrationModeAuto))

	for _, table := range []string{"form_entries", "entry_field_values", "entry_metas", "entry_notes", "sync_settings", "sync_operation_logs"} {
		assert.True(t, pool.GetDB().Migrator().HasTable(table), table)
	}
}

func TestMigrateDropRecreates(t *testing.T) {
	pool := newTestPool(t)
	db := pool.GetDB()
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, db.Create(&models.SyncSetting{Key: models.SettingLogMode, Value: "debug"}).Error)

	require.NoError(t, Migrate(db, MigrationModeDrop))

	var count int64
	require.NoError(t, db.Model(&models.SyncSetting{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPoolStatsAndHealth(t *testing.T) {
	pool := newTestPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.HealthCheck(ctx))

	stats, err := pool.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Equal(t, 1, pool.Options().MaxIdleConns)

	require.NoError(t, AutoMigrate(pool.GetDB()))
	err = pool.GetDB().Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models.SyncSetting{Key: models.SettingFormID, Value: "7"}).Error
	})
	require.NoError(t, err)

	var setting models.SyncSetting
	require.NoError(t, pool.GetDB().Where(&models.SyncSetting{Key: models.SettingFormID}).First(&setting).Error)
	assert.Equal(t, "7", setting.Value)
}

func TestHealthCheckAfterClose(t *testing.T) {
	pool := newTestPool(t)
	require.NoError(t, pool.Close())
	assert.Error(t, pool.HealthCheck(context.Background()))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, gormLogLevel("debug"))
	assert.Equal(t, gormlogger.Silent, gormLogLevel("disabled"))
	assert.Equal(t, gormlogger.Warn, gormLogLevel("info"))
}
