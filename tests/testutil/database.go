package testutil

import (
	"testing"

	"github.com/lumme/lumme-api/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory SQLite database with foreign keys on.
// The pool is held to one connection so every query sees the same memory database;
// concurrent callers queue on it the way row locks serialize them in PostgreSQL.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), config.GormConfig("silent"))
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// UseTestDB opens a test database and installs it as the global connection
func UseTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := NewTestDB(t)
	previous := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(previous) })
	return db
}
