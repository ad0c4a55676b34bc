package application

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLRUCache(t *testing.T) {
	t.Parallel()

	cache := NewLRUCache(2, time.Minute)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	value := []byte("payload")
	if err := cache.Set(ctx, "agenda:u1:x", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'P'
	got, ok, _ := cache.Get(ctx, "agenda:u1:x")
	if !ok || string(got) != "payload" {
		t.Fatalf("expected stored copy, got %q ok=%v", got, ok)
	}

	_ = cache.Set(ctx, "agenda:u2:x", []byte("b"), 0)
	_ = cache.Set(ctx, "catalog:sessions:x", []byte("c"), 0)
	if cache.Len() != 2 {
		t.Fatalf("expected size bound of 2, got %d", cache.Len())
	}

	if err := cache.Invalidate(ctx, "agenda:"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "agenda:u2:x"); ok {
		t.Fatalf("expected agenda entries to be invalidated")
	}
	if _, ok, _ := cache.Get(ctx, "catalog:sessions:x"); !ok {
		t.Fatalf("expected catalog entry to survive")
	}
}

func TestLRUCacheExpires(t *testing.T) {
	t.Parallel()

	cache := NewLRUCache(4, 20*time.Millisecond)
	ctx := context.Background()
	_ = cache.Set(ctx, "k", []byte("v"), 0)
	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	a := cacheKey(agendaNamespace, "u1", agendaRequest{MaxPerDay: 3})
	b := cacheKey(agendaNamespace, "u1", agendaRequest{MaxPerDay: 3})
	c := cacheKey(agendaNamespace, "u1", agendaRequest{MaxPerDay: 4})
	if a != b {
		t.Fatalf("identical requests must share a key")
	}
	if a == c {
		t.Fatalf("different requests must not share a key")
	}
	if !strings.HasPrefix(a, scopePrefix(agendaNamespace, "u1")) {
		t.Fatalf("key %q lacks the user scope", a)
	}
}

func TestLoadCachedWithoutCache(t *testing.T) {
	t.Parallel()

	calls := 0
	value, hit, err := loadCached(context.Background(), nil, discardLogger, "test", "k", time.Minute, func() (int, error) {
		calls++
		return 7, nil
	})
	if err != nil || hit || value != 7 || calls != 1 {
		t.Fatalf("unexpected result value=%d hit=%v err=%v calls=%d", value, hit, err, calls)
	}
}
