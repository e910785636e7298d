package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestUp_CreatesStorefrontEntries(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_up_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Up(context.Background(), sqlDB, "sqlite"); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if !conn.Migrator().HasTable(&models.StorageEntry{}) {
		t.Fatal("expected storefront_entries table to exist")
	}

	// re-running is a no-op
	if err := Up(context.Background(), sqlDB, "sqlite"); err != nil {
		t.Fatalf("second Up failed: %v", err)
	}
}

func TestValidateDir_RejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write("20260101000000_ok.sql", "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("expected valid dir, got %v", err)
	}

	write("20260101000000_dup.sql", "-- +goose Up\n-- +goose Down\n")
	if err := ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate version error, got %v", err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Entry Index!")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasSuffix(path, "_add_entry_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "   "); err == nil {
		t.Fatal("expected blank name to fail")
	}
	if _, err := CreateSQLMigration(dir, "add entry index"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected reused name to fail, got %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
		t.Fatalf("scaffold missing goose annotations:\n%s", body)
	}
}
