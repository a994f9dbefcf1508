// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"fibra-backend/internal/database"

	"gorm.io/gorm"
)

// New returns a migrated database backed by a file in t.TempDir.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "fibra.db") + "?_busy_timeout=5000"
	db, err := database.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Use installs a fresh database as database.DB for handler tests and restores
// the previous value afterwards.
func Use(t testing.TB) *gorm.DB {
	t.Helper()

	db := New(t)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}
