package database

import (
	"path/filepath"
	"testing"
	"time"

	"reminderd/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testModel struct {
	ID        uint `gorm:"primarykey"`
	Name      string
	CreatedAt time.Time
}

func sqliteConfig(path string) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        path,
		BusyTimeout: 5000,
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reminders.db")

	db, err := Open(sqliteConfig(path))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, HealthCheck(db))
	require.NoError(t, db.AutoMigrate(&testModel{}))

	record := testModel{Name: "first"}
	require.NoError(t, db.Create(&record).Error)
	assert.NotZero(t, record.ID)

	var journalMode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&journalMode).Error)
	assert.Equal(t, "wal", journalMode)

	assert.FileExists(t, path)
}

func TestOpen_SQLiteDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.db")

	db, err := Open(sqliteConfig(path))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testModel{}))
	require.NoError(t, db.Create(&testModel{Name: "kept"}).Error)
	require.NoError(t, Close(db))

	db, err = Open(sqliteConfig(path))
	require.NoError(t, err)
	defer Close(db)

	var found testModel
	require.NoError(t, db.First(&found).Error)
	assert.Equal(t, "kept", found.Name)
}

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(sqliteConfig(MemoryPath))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, db.AutoMigrate(&testModel{}))
	require.NoError(t, db.Create(&testModel{Name: "in memory"}).Error)

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.DatabaseConfig
		errorContains string
	}{
		{
			name:          "unknown driver",
			cfg:           config.DatabaseConfig{Driver: "mysql"},
			errorContains: "unsupported database driver",
		},
		{
			name:          "sqlite without path",
			cfg:           config.DatabaseConfig{Driver: config.DriverSQLite},
			errorContains: "sqlite path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(tt.cfg)
			assert.Nil(t, db)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestHealthCheck_ClosedDatabase(t *testing.T) {
	assert.Error(t, HealthCheck(nil))

	db, err := Open(sqliteConfig(filepath.Join(t.TempDir(), "closed.db")))
	require.NoError(t, err)
	require.NoError(t, Close(db))

	err = HealthCheck(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database ping failed")
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN(sqliteConfig("/tmp/r.db"))
	assert.Contains(t, dsn, "file:/tmp/r.db?")
	assert.Contains(t, dsn, "busy_timeout%285000%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")

	memory := sqliteDSN(sqliteConfig(MemoryPath))
	assert.NotContains(t, memory, "journal_mode")
}
