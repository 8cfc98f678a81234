package models

import (
	"path/filepath"
	"testing"

	"github.com/mmdatafocus/books_offline/config"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	if err := config.OpenDatabase(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
