package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sifan077/ushort/config"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "history.db")

	db, err := Open(config.HistoryConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(context.Background(), db, &model.HistoryEntry{}))
	assert.True(t, db.Migrator().HasTable(&model.HistoryEntry{}))
	assert.FileExists(t, dsn)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.HistoryConfig{Driver: "redis"})
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestAutoMigrate_NoModels(t *testing.T) {
	assert.NoError(t, AutoMigrate(context.Background(), nil))
}

func TestEnsureDir(t *testing.T) {
	assert.NoError(t, ensureDir(":memory:"))
	assert.NoError(t, ensureDir("file::memory:?cache=shared"))
	assert.NoError(t, ensureDir("history.db"))
}
