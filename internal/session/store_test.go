package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("empty store: err = %v, want ErrNoRecord", err)
	}

	want := Record{
		Identity:  "dj@example.com",
		Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Cookies: []Cookie{
			{Name: "sid", Value: "abc", Domain: "www.1001tracklists.com", Path: "/", Expires: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
			{Name: "uid", Value: "42", Domain: "www.1001tracklists.com", Path: "/"},
		},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session cache permissions = %o, want 600", perm)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Identity != want.Identity || len(got.Cookies) != 2 || !got.Cookies[0].Expires.Equal(want.Cookies[0].Expires) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Cookies[1].Expires.IsZero() {
		t.Fatal("session cookie gained an expiry")
	}

	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("after delete: err = %v", err)
	}
}

func TestFileStoreRejectsCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil || errors.Is(err, ErrNoRecord) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("MIXCHAPTERS_TEST_REDIS")
	if addr == "" {
		t.Skip("set MIXCHAPTERS_TEST_REDIS to run against a live redis")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisOptions{Addr: addr, Key: "mixchapters:test:" + t.Name()})
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()
	defer func() { _ = store.Delete(ctx) }()

	record := Record{
		Identity: "dj@example.com",
		Cookies:  []Cookie{{Name: "sid", Value: "abc", Domain: "example.com", Path: "/", Expires: time.Now().Add(time.Hour)}},
	}
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ttl, err := store.client.TTL(ctx, store.key).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	got, err := store.Load(ctx)
	if err != nil || got.Identity != record.Identity {
		t.Fatalf("Load: %+v %v", got, err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoRecord) {
		t.Fatalf("after delete: %v", err)
	}
}
