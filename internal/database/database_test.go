package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/config"
	"github.com/salesops/crm-dashboard/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewDatabase_SQLite(t *testing.T) {
	db, err := database.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable("leads"))
	assert.True(t, db.Migrator().HasTable("sync_runs"))

	require.NoError(t, database.HealthCheck(db))
	stats, err := database.HealthCheckWithStats(db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := database.NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestHealthCheck_ClosedPool(t *testing.T) {
	db, err := database.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Close(db))

	assert.Error(t, database.HealthCheck(db))
	_, err = database.HealthCheckWithStats(db)
	assert.Error(t, err)
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := database.NewGormLogger(zap.New(core), 10*time.Millisecond)
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "record not found is not logged")

	l.Trace(ctx, time.Now(), query, errors.New("boom"))
	require.Equal(t, 1, logs.Len())
	failed := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
	assert.Equal(t, "gorm", failed.LoggerName)
	assert.Equal(t, "SELECT 1", failed.ContextMap()["sql"])

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level, "slow query")

	l.Trace(ctx, time.Now(), query, nil)
	assert.Equal(t, 2, logs.Len(), "fast queries are not logged at warn level")

	l.LogMode(gormlogger.Info).Trace(ctx, time.Now(), query, nil)
	require.Equal(t, 3, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[2].Level)
}
