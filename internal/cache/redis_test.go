package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreFromClient(client, "annexa:"), mr
}

func TestRedisStore_SetAndGet(t *testing.T) {
	s, _ := newTestRedisStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := s.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "value1" {
		t.Fatalf("expected 'value1', got '%s'", string(val))
	}
}

func TestRedisStore_GetMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)
	defer s.Close()

	_, err := s.Get(context.Background(), "nonexistent")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	s, mr := newTestRedisStore(t)
	defer s.Close()

	if err := s.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := mr.Get("annexa:k")
	if err != nil {
		t.Fatalf("expected prefixed key in redis: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected 'v', got '%s'", got)
	}
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	defer s.Close()

	ctx := context.Background()
	if err := s.Set(ctx, "expiring", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "expiring")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after TTL, got: %v", err)
	}
}

func TestRedisStore_Ping(t *testing.T) {
	s, _ := newTestRedisStore(t)
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
