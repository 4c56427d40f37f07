package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todo-api/internal/config"
)

func sqliteConfig(t *testing.T) config.DBConfig {
	return config.DBConfig{
		Driver:      "sqlite",
		SQLitePath:  "file:" + t.Name() + "?mode=memory&cache=shared",
		AutoMigrate: true,
	}
}

func TestNewSQLiteMigratesSchema(t *testing.T) {
	svc, err := New(sqliteConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	m := svc.GetDB().Migrator()
	for _, table := range []string{"todo_items", "tags", "todo_categories", "todo_item_tags", "secrets"} {
		assert.True(t, m.HasTable(table), "missing table %s", table)
	}
}

func TestHealth(t *testing.T) {
	svc, err := New(sqliteConfig(t), zap.NewNop())
	require.NoError(t, err)

	stats := svc.Health()
	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "sqlite", stats["driver"])
	assert.Equal(t, "1", stats["open_connections"])

	require.NoError(t, svc.Close())
	stats = svc.Health()
	assert.Equal(t, "down", stats["status"])
	assert.Contains(t, stats["error"], "db down")
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.DBConfig{Driver: "oracle"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
