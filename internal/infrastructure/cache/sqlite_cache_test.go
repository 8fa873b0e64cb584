package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"fleetevents/internal/infrastructure/persistence/sqlite/model"
	sqliteuow "fleetevents/internal/infrastructure/persistence/sqlite/uow"
)

func setupSQLiteCache(t *testing.T) (*SQLiteCache, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "cache.sqlite")), &gorm.Config{})
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

	if err := db.AutoMigrate(&model.KV{}); err != nil {
		t.Fatalf("auto migrate saga_kv: %v", err)
	}

	return NewSQLiteCache(db), db
}

func TestSQLiteCacheSetGetDelete(t *testing.T) {
	cache, _ := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "create:req-1", `{"event_id":1}`, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := cache.Get(ctx, "create:req-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatalf("Get() expected found=true")
	}
	if value != `{"event_id":1}` {
		t.Fatalf("Get() value = %q", value)
	}

	if err := cache.Set(ctx, "create:req-1", `{"event_id":2}`, 0); err != nil {
		t.Fatalf("Set(update) error = %v", err)
	}

	value, found, err = cache.Get(ctx, "create:req-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != `{"event_id":2}` {
		t.Fatalf("Get() after update = %q, found=%v", value, found)
	}

	if err := cache.Delete(ctx, "create:req-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, found, err = cache.Get(ctx, "create:req-1")
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if found {
		t.Fatalf("Get() expected found=false after delete")
	}
}

func TestSQLiteCacheRejectsEmptyKey(t *testing.T) {
	cache, _ := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "", "v", 0); err == nil {
		t.Fatalf("Set() expected error for empty key")
	}
	if _, _, err := cache.Get(ctx, ""); err == nil {
		t.Fatalf("Get() expected error for empty key")
	}
	if err := cache.Delete(ctx, ""); err == nil {
		t.Fatalf("Delete() expected error for empty key")
	}
}

func TestSQLiteCacheSetRollsBackWithTransaction(t *testing.T) {
	cache, db := setupSQLiteCache(t)
	ctx := context.Background()
	u := sqliteuow.NewUnitOfWork(db)
	abort := errors.New("abort")

	err := u.WithTx(ctx, func(txCtx context.Context) error {
		if err := cache.Set(txCtx, "create:req-2", "pending", 0); err != nil {
			return err
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("WithTx() error = %v, want abort", err)
	}

	if _, found, err := cache.Get(ctx, "create:req-2"); err != nil || found {
		t.Fatalf("Get() after rollback found=%v err=%v, want not found", found, err)
	}
}
