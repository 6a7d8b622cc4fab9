package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect(t *testing.T) {
	t.Run("Invalid Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         DriverMySQL,
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "rolesync",
			TimeoutSeconds: 1,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("Unsupported Driver", func(t *testing.T) {
		db, err := Connect(Config{Driver: "oracle"})
		assert.ErrorContains(t, err, "unsupported database driver")
		assert.Nil(t, db)
	})

	t.Run("SQLite File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "database.db")
		db, err := Connect(Config{Driver: DriverSQLite, Name: path})
		assert.NoError(t, err)
		if assert.NotNil(t, db) {
			sqlDB, err := db.DB()
			assert.NoError(t, err)
			assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
		}
	})
}

func TestConfig_IsEmbedded(t *testing.T) {
	assert.True(t, Config{Driver: DriverSQLite}.IsEmbedded())
	assert.False(t, Config{Driver: DriverMySQL}.IsEmbedded())
	assert.False(t, Config{Driver: DriverPostgres}.IsEmbedded())
}
