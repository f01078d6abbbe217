package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

type recordingQueryRecorder struct {
	mu  sync.Mutex
	ops map[string]int
}

func (r *recordingQueryRecorder) RecordStoreQuery(operation string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = map[string]int{}
	}
	r.ops[operation]++
}

func (r *recordingQueryRecorder) count(operation string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops[operation]
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestInstrument(t *testing.T) {
	db := newTestDB(t)
	rec := &recordingQueryRecorder{}
	require.NoError(t, Instrument(db, rec))

	require.NoError(t, db.Create(&widget{Name: "a"}).Error)
	assert.Equal(t, 1, rec.count("create"))

	var got widget
	require.NoError(t, db.First(&got, "name = ?", "a").Error)
	assert.Equal(t, 1, rec.count("query"))

	require.NoError(t, db.Model(&got).Update("name", "b").Error)
	assert.Equal(t, 1, rec.count("update"))

	require.NoError(t, db.Delete(&got).Error)
	assert.Equal(t, 1, rec.count("delete"))
}

func TestPoolManagerTransaction(t *testing.T) {
	db := newTestDB(t)
	cfg := DefaultPoolConfig()
	cfg.MaxOpenConns = 1
	cfg.HealthCheckInterval = 0

	pm, err := NewPoolManager(db, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { pm.Close() })

	ctx := context.Background()
	require.NoError(t, pm.Ping(ctx))

	err = pm.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "tx"}).Error
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	// a failing fn rolls back
	boom := assert.AnError
	err = pm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "rollback"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPoolManagerClosed(t *testing.T) {
	db := newTestDB(t)
	cfg := DefaultPoolConfig()
	cfg.HealthCheckInterval = 0

	pm, err := NewPoolManager(db, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, pm.Close())
	require.NoError(t, pm.Close())

	assert.Error(t, pm.Ping(context.Background()))
	assert.Error(t, pm.WithTransaction(context.Background(), func(*gorm.DB) error { return nil }))
}
