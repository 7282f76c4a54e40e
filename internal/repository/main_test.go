package repository

import (
	"testing"

	"chenil/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Each :memory: connection is its own database; keep the pool at one so
	// goroutines spawned by the code under test see the same tables.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Owner{},
		&models.Dog{},
		&models.Media{},
		&models.EditToken{},
		&models.SiteSetting{},
		&models.PushSubscription{},
		&models.AuditEntry{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

// setupMockDB is for tests that assert the exact SQL a method issues rather
// than its observable effect.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}
