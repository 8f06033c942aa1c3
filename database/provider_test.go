package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/services/logging"
)

func createTestConfig(driver, dsn string, autoMigrate bool) config.Config {
	return config.Config{
		Database: config.DatabaseConfig{
			Driver:       driver,
			DSN:          dsn,
			AutoMigrate:  autoMigrate,
			MaxOpenConns: 1,
		},
	}
}

type TestModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
}

func TestWithModels(t *testing.T) {
	t.Run("with models", func(t *testing.T) {
		option := WithModels(TestModel{}, &TestModel{})

		assert.Len(t, option.models, 2)
	})

	t.Run("add appends", func(t *testing.T) {
		option := WithModels()
		option.Add(&TestModel{})

		assert.Len(t, option.models, 1)
	})
}

func TestProvideDatabase_SQLite(t *testing.T) {
	t.Run("in-memory connection", func(t *testing.T) {
		cfg := createTestConfig("sqlite", ":memory:", false)

		db, err := ProvideDatabase(cfg, nil, logging.NewNop())

		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		defer sqlDB.Close()
		assert.NoError(t, sqlDB.Ping())
		assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	})

	t.Run("file database with auto-migrate", func(t *testing.T) {
		dsn := filepath.Join(t.TempDir(), "angrymail.db")
		cfg := createTestConfig("sqlite", dsn, true)

		db, err := ProvideDatabase(cfg, WithModels(&TestModel{}), nil)

		require.NoError(t, err)
		sqlDB, _ := db.DB()
		defer sqlDB.Close()
		assert.True(t, db.Migrator().HasTable(&TestModel{}))
	})

	t.Run("auto-migrate disabled", func(t *testing.T) {
		cfg := createTestConfig("sqlite", ":memory:", false)

		db, err := ProvideDatabase(cfg, WithModels(&TestModel{}), nil)

		require.NoError(t, err)
		sqlDB, _ := db.DB()
		defer sqlDB.Close()
		assert.False(t, db.Migrator().HasTable(&TestModel{}))
	})
}

func TestProvideDatabase_UnsupportedDriver(t *testing.T) {
	cfg := createTestConfig("oracle", "whatever", false)

	db, err := ProvideDatabase(cfg, nil, nil)

	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported database driver: oracle")
}
