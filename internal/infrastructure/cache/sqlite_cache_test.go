package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"govcore/internal/infrastructure/persistence/sqlite/model"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func setupSQLiteCache(t *testing.T) (*SQLiteCache, *testClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&model.GovKV{}); err != nil {
		t.Fatalf("auto migrate gov_kv: %v", err)
	}

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewSQLiteCache(db, clock), clock
}

func TestSQLiteCacheSetGetDelete(t *testing.T) {
	cache, _ := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "org_settings:1", `{"org_id":1}`, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := cache.Get(ctx, "org_settings:1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() expected found=true")
	}
	if value != `{"org_id":1}` {
		t.Fatalf("Get() value = %q", value)
	}

	if err := cache.Set(ctx, "org_settings:1", `{"org_id":1,"is_platform":true}`, 0); err != nil {
		t.Fatalf("Set(update) error = %v", err)
	}
	value, found, err = cache.Get(ctx, "org_settings:1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != `{"org_id":1,"is_platform":true}` {
		t.Fatalf("Get() after update = (%q, %t)", value, found)
	}

	if err := cache.Delete(ctx, "org_settings:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, err := cache.Get(ctx, "org_settings:1"); err != nil || found {
		t.Fatalf("Get() after delete = (found=%t, err=%v)", found, err)
	}
}

func TestSQLiteCacheMissOnUnknownKey(t *testing.T) {
	cache, _ := setupSQLiteCache(t)

	if _, found, err := cache.Get(context.Background(), "nope"); err != nil || found {
		t.Fatalf("Get(unknown) = (found=%t, err=%v)", found, err)
	}
}

func TestSQLiteCacheTTLExpiry(t *testing.T) {
	cache, clock := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "org_settings:2", "v", 5*time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, found, err := cache.Get(ctx, "org_settings:2"); err != nil || !found {
		t.Fatalf("Get() before expiry = (found=%t, err=%v)", found, err)
	}

	clock.now = clock.now.Add(5 * time.Minute)

	// At the deadline the entry is expired, deleted and reported as a miss.
	if _, found, err := cache.Get(ctx, "org_settings:2"); err != nil || found {
		t.Fatalf("Get() at expiry = (found=%t, err=%v)", found, err)
	}

	// The row itself is gone, not just filtered.
	if _, found, err := cache.Get(ctx, "org_settings:2"); err != nil || found {
		t.Fatalf("Get() after expiry = (found=%t, err=%v)", found, err)
	}
}

func TestSQLiteCacheRejectsEmptyKey(t *testing.T) {
	cache, _ := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "  ", "v", 0); err == nil {
		t.Fatal("Set() with blank key: want error")
	}
	if _, _, err := cache.Get(ctx, ""); err == nil {
		t.Fatal("Get() with empty key: want error")
	}
	if err := cache.Delete(ctx, ""); err == nil {
		t.Fatal("Delete() with empty key: want error")
	}
}
