package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"fleetevents/internal/bootstrap/config"
)

func TestWithBusyTimeout(t *testing.T) {
	cases := map[string]string{
		"fleet.sqlite":                         "fleet.sqlite?_pragma=busy_timeout(5000)",
		"file:fleet.sqlite?cache=shared":       "file:fleet.sqlite?cache=shared&_pragma=busy_timeout(5000)",
		"fleet.sqlite?_pragma=busy_timeout(1)": "fleet.sqlite?_pragma=busy_timeout(1)",
		":memory:":                             ":memory:",
	}
	for in, want := range cases {
		if got := withBusyTimeout(in); got != want {
			t.Fatalf("withBusyTimeout(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "fleet.sqlite")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("Open() expected error")
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "log.sqlite")), &gorm.Config{Logger: newGormLogger(&buf)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	type row struct {
		ID   uint64
		Name string
	}
	if err := db.AutoMigrate(&row{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	var got row
	if err := db.Where("id = ?", 42).Take(&got).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Take() error = %v, want record not found", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("logger output = %q, want none for a missing row", buf.String())
	}

	_ = db.Table("missing_table").Take(&got).Error
	if !strings.Contains(buf.String(), "missing_table") {
		t.Fatalf("logger output = %q, want the failing query", buf.String())
	}
}
