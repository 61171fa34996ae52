package badger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

func openTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "cache")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCacheStorageRoundTrip(t *testing.T) {
	storage := NewCacheStorage(openTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	if _, err := storage.Get(ctx, "llm_semantic:missing"); !errors.Is(err, models.ErrCacheMiss) {
		t.Fatalf("Expected ErrCacheMiss for missing key, got %v", err)
	}

	if err := storage.Set(ctx, "llm_semantic:a", []byte(`{"output":1}`), time.Hour); err != nil {
		t.Fatalf("Failed to set entry: %v", err)
	}

	got, err := storage.Get(ctx, "llm_semantic:a")
	if err != nil {
		t.Fatalf("Failed to get entry: %v", err)
	}
	if string(got) != `{"output":1}` {
		t.Errorf("Expected stored value, got %s", got)
	}

	count, err := storage.Count(ctx, models.CachePrefix)
	if err != nil {
		t.Fatalf("Failed to count entries: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 entry, got %d", count)
	}

	if err := storage.Delete(ctx, "llm_semantic:a"); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}
	if _, err := storage.Get(ctx, "llm_semantic:a"); !errors.Is(err, models.ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestCacheStorageTTL(t *testing.T) {
	storage := NewCacheStorage(openTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	if err := storage.Set(ctx, "llm_semantic:short", []byte("v"), time.Second); err != nil {
		t.Fatal(err)
	}
	if err := storage.Set(ctx, "llm_semantic:forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	// Badger expiry has one-second resolution
	time.Sleep(2100 * time.Millisecond)

	if _, err := storage.Get(ctx, "llm_semantic:short"); !errors.Is(err, models.ErrCacheMiss) {
		t.Errorf("Expected expired entry to miss, got %v", err)
	}
	if _, err := storage.Get(ctx, "llm_semantic:forever"); err != nil {
		t.Errorf("Expected entry without TTL to survive, got %v", err)
	}
}

func TestCacheStorageCancelledContext(t *testing.T) {
	storage := NewCacheStorage(openTestDB(t), arbor.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := storage.Set(ctx, "k", []byte("v"), time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from Set, got %v", err)
	}
	if _, err := storage.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from Get, got %v", err)
	}
}

func TestManagerWithGC(t *testing.T) {
	cfg := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "cache")}
	manager, err := NewManager(arbor.NewLogger(), cfg, "@hourly")
	if err != nil {
		t.Fatalf("Failed to open manager: %v", err)
	}

	ctx := context.Background()
	if err := manager.CacheStore().Set(ctx, "llm_semantic:k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := manager.gc.RunOnce(); err != nil {
		t.Errorf("Expected GC on a small store to be a no-op, got %v", err)
	}
	if err := manager.gc.Start("@hourly"); err == nil {
		t.Error("Expected second Start to fail")
	}

	if err := manager.Close(); err != nil {
		t.Fatalf("Failed to close manager: %v", err)
	}
}

func TestManagerRejectsBadSchedule(t *testing.T) {
	cfg := &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "cache")}
	if _, err := NewManager(arbor.NewLogger(), cfg, "not a schedule"); err == nil {
		t.Fatal("Expected invalid schedule to fail")
	}
}

func TestResetOnStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache")
	ctx := context.Background()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := NewCacheStorage(db, arbor.NewLogger()).Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: path, ResetOnStartup: true})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := NewCacheStorage(db, arbor.NewLogger()).Get(ctx, "k"); !errors.Is(err, models.ErrCacheMiss) {
		t.Errorf("Expected reset database to be empty, got %v", err)
	}
}
