// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
)

// Config returns a SQLite config backed by a private in-memory database.
func Config() config.DBConfig {
	return config.DBConfig{
		Driver:      "sqlite",
		SQLitePath:  "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		AutoMigrate: true,
	}
}

// New opens a migrated in-memory database that is closed when t ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	svc, err := database.New(Config(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc.GetDB()
}
