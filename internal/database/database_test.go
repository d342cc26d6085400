package database

import (
	"context"
	"testing"

	"forum/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: NewGormLogger(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, configurePool(db, &config.Config{DBDriver: "sqlite"}))
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openMemoryDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(&config.Config{DBDriver: "sqlite", SQLitePath: "test.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor(&config.Config{DBDriver: "postgres", DBHost: "localhost"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = dialectorFor(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestApplySchema(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, ApplySchema(ctx, db))

	for _, table := range []string{"users", "posts", "comments", "categories", "tags", "post_tags", "post_likes", "comment_likes"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	status, err := GetSchemaStatus(ctx, db)
	require.NoError(t, err)
	assert.Len(t, status.AppliedVersions, len(GetMigrations()))
	assert.Empty(t, status.PendingMigrations)

	// re-running is a no-op
	require.NoError(t, ApplySchema(ctx, db))
}

func TestRollbackMigration(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()
	require.NoError(t, ApplySchema(ctx, db))

	require.NoError(t, RollbackMigration(ctx, db, 2))
	status, err := GetSchemaStatus(ctx, db)
	require.NoError(t, err)
	require.Len(t, status.PendingMigrations, 1)
	assert.Equal(t, 2, status.PendingMigrations[0].Version)

	assert.Error(t, RollbackMigration(ctx, db, 2), "already rolled back")
	assert.Error(t, RollbackMigration(ctx, db, 99), "unknown version")
}

func TestValidateAppliedVersions(t *testing.T) {
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, migrations))
	assert.Error(t, validateAppliedVersions([]int{1, 42}, migrations))
}
